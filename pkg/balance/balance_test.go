// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package balance

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solos(ratings ...float64) []Unit {
	units := make([]Unit, len(ratings))
	for i, r := range ratings {
		units[i] = Solo(fmt.Sprintf("p%d", i), r)
	}
	return units
}

func TestTwoTeams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		units         []Unit
		teamSize      int
		wantCountDiff int
		maxGap        float64
	}{
		{
			name:          "four solos split evenly",
			units:         solos(4, 3, 2, 1),
			teamSize:      2,
			wantCountDiff: 0,
			maxGap:        0,
		},
		{
			name:          "eight solos",
			units:         solos(1500, 1400, 1300, 1200, 1100, 1000, 900, 800),
			teamSize:      4,
			wantCountDiff: 0,
			maxGap:        0,
		},
		{
			name: "party stays together",
			units: []Unit{
				{Members: []string{"a", "b"}, Ratings: []float64{1000, 1000}},
				Solo("c", 1200),
				Solo("d", 800),
			},
			teamSize:      2,
			wantCountDiff: 0,
			maxGap:        0,
		},
		{
			name:          "odd player count",
			units:         solos(10, 20, 30),
			teamSize:      2,
			wantCountDiff: 1,
			maxGap:        5,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			split, err := TwoTeams(context.Background(), tt.units, tt.teamSize)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCountDiff, split.CountDiff)
			assert.LessOrEqual(t, split.AvgGap, tt.maxGap)
			assert.LessOrEqual(t, len(split.Team1), tt.teamSize)
			assert.LessOrEqual(t, len(split.Team2), tt.teamSize)

			seen := map[string]int{}
			for _, id := range append(append([]string{}, split.Team1...), split.Team2...) {
				seen[id]++
			}
			for _, u := range tt.units {
				for _, id := range u.Members {
					assert.Equal(t, 1, seen[id], "player %s placed exactly once", id)
				}
			}
		})
	}
}

func TestTwoTeams_PartyMembersShareTeam(t *testing.T) {
	t.Parallel()

	units := []Unit{
		{Members: []string{"a", "b"}, Ratings: []float64{1500, 500}},
		{Members: []string{"c", "d"}, Ratings: []float64{900, 1100}},
		Solo("e", 1000),
		Solo("f", 1000),
	}
	split, err := TwoTeams(context.Background(), units, 3)
	require.NoError(t, err)

	teamOf := map[string]int{}
	for _, id := range split.Team1 {
		teamOf[id] = 1
	}
	for _, id := range split.Team2 {
		teamOf[id] = 2
	}
	assert.Equal(t, teamOf["a"], teamOf["b"])
	assert.Equal(t, teamOf["c"], teamOf["d"])
	assert.NotEqual(t, teamOf["a"], teamOf["c"])
}

func TestTwoTeams_Infeasible(t *testing.T) {
	t.Parallel()

	t.Run("party larger than a team", func(t *testing.T) {
		units := []Unit{
			{Members: []string{"a", "b", "c"}, Ratings: []float64{1, 1, 1}},
			Solo("d", 1),
		}
		_, err := TwoTeams(context.Background(), units, 2)
		require.ErrorIs(t, err, ErrNoFeasibleSplit)
	})

	t.Run("too many players", func(t *testing.T) {
		_, err := TwoTeams(context.Background(), solos(1, 2, 3, 4, 5), 2)
		require.ErrorIs(t, err, ErrNoFeasibleSplit)
	})

	t.Run("single unit", func(t *testing.T) {
		_, err := TwoTeams(context.Background(), solos(1), 1)
		require.ErrorIs(t, err, ErrNoFeasibleSplit)
	})
}

func TestTwoTeams_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TwoTeams(ctx, solos(1, 2, 3, 4), 2)
	require.ErrorIs(t, err, context.Canceled)
}

func BenchmarkTwoTeams4v4(b *testing.B) {
	units := solos(1500, 1400, 1300, 1200, 1100, 1000, 900, 800)
	for i := 0; i < b.N; i++ {
		_, _ = TwoTeams(context.Background(), units, 4)
	}
}
