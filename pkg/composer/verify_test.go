// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertPartition(t *testing.T, candidates []string, out VerificationOutcome) {
	t.Helper()
	placed := append(append([]string(nil), out.Team1...), out.Team2...)
	assert.ElementsMatch(t, candidates, placed)
	diff := len(out.Team1) - len(out.Team2)
	assert.True(t, diff >= -1 && diff <= 1, "team sizes %d and %d", len(out.Team1), len(out.Team2))
}

func TestVerifyTeams(t *testing.T) {
	candidates := []string{"c1", "c2", "a", "b", "c", "d"}

	tests := []struct {
		name     string
		state    SessionState
		wantKind VerificationKind
	}{
		{
			name: "complete draft",
			state: SessionState{
				Captains: [2]string{"c1", "c2"}, Candidates: candidates,
				Team1: []string{"c1", "a", "d"}, Team2: []string{"c2", "b", "c"},
			},
			wantKind: Verified,
		},
		{
			name: "unplaced player",
			state: SessionState{
				Captains: [2]string{"c1", "c2"}, Candidates: candidates,
				Team1: []string{"c1", "a"}, Team2: []string{"c2", "b", "c"},
			},
			wantKind: Repaired,
		},
		{
			name: "player on both teams",
			state: SessionState{
				Captains: [2]string{"c1", "c2"}, Candidates: candidates,
				Team1: []string{"c1", "a", "b"}, Team2: []string{"c2", "b", "c", "d"},
			},
			wantKind: Repaired,
		},
		{
			name: "captain missing resets the teams",
			state: SessionState{
				Captains: [2]string{"c1", "c2"}, Candidates: candidates,
				Team1: []string{"a", "b", "c"}, Team2: []string{"c2", "d"},
			},
			wantKind: Repaired,
		},
		{
			name: "uneven teams",
			state: SessionState{
				Captains: [2]string{"c1", "c2"}, Candidates: candidates,
				Team1: []string{"c1", "a", "b", "c", "d"}, Team2: []string{"c2"},
			},
			wantKind: Repaired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := VerifyTeams(tt.state)
			assert.Equal(t, tt.wantKind, out.Kind)
			assertPartition(t, candidates, out)
			assert.Contains(t, out.Team1, "c1")
			assert.Contains(t, out.Team2, "c2")
		})
	}
}

func TestVerifyTeams_PartyMovedToCaptain(t *testing.T) {
	state := SessionState{
		Captains:   [2]string{"c1", "c2"},
		Candidates: []string{"c1", "c2", "m", "a"},
		Team1:      []string{"c1", "a"},
		Team2:      []string{"c2", "m"},
		Parties:    map[string][]string{"p": {"c1", "m"}},
		PartyOrder: []string{"p"},
	}
	out := VerifyTeams(state)

	assert.Equal(t, Repaired, out.Kind)
	assert.ElementsMatch(t, []string{"c1", "m"}, out.Team1)
	assert.ElementsMatch(t, []string{"c2", "a"}, out.Team2)
}

func TestVerifyTeams_EmergencyFallback(t *testing.T) {
	// a captain party of three in a four player game can never be balanced
	state := SessionState{
		Captains:   [2]string{"c1", "c2"},
		Candidates: []string{"c1", "a", "b", "c2"},
		Team1:      []string{"c1", "a", "b"},
		Team2:      []string{"c2"},
		Parties:    map[string][]string{"p": {"c1", "a", "b"}},
		PartyOrder: []string{"p"},
	}
	out := VerifyTeams(state)

	assert.Equal(t, EmergencyFallback, out.Kind)
	assert.Equal(t, []string{"c1", "a"}, out.Team1)
	assert.Equal(t, []string{"c2", "b"}, out.Team2)
	assert.NotEmpty(t, out.Issues)
	assert.Equal(t, "emergency_fallback", out.Kind.String())
}
