// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package gameserver

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

type recordingHandler struct {
	mu       sync.Mutex
	warps    map[int]WarpOutcome
	scorings []ScoringEvent
	voids    map[int]string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{warps: map[int]WarpOutcome{}, voids: map[int]string{}}
}

func (h *recordingHandler) HandleWarpResult(_ *envelope.Scope, gameID int, outcome WarpOutcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.warps[gameID] = outcome
}

func (h *recordingHandler) HandleScoring(_ *envelope.Scope, event ScoringEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scorings = append(h.scorings, event)
}

func (h *recordingHandler) HandleVoiding(_ *envelope.Scope, gameID int, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.voids[gameID] = reason
}

type recordingMaps struct {
	reserved, all []models.MapInfo
}

func (m *recordingMaps) UpdateMaps(reserved, all []models.MapInfo) {
	m.reserved, m.all = reserved, all
}

func testScope() *envelope.Scope {
	return envelope.NewRootScope(context.Background(), "test", "")
}

func TestDispatch_WarpResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		gameID int
		want   WarpOutcome
	}{
		{`{"type":"warp_success","gameId":"12"}`, 12, WarpSucceeded},
		{`{"type":"warp_failed_arena_not_found","gameId":13}`, 13, WarpArenaNotFound},
		{`{"type":"warp_failed_offline_players","game_id":"14"}`, 14, WarpPlayersOffline},
		{`{"type":"warp_failure_unknown","gameId":"15"}`, 15, WarpUnknownFailure},
		{`{"type":"retrygame","gameId":"16"}`, 16, WarpRetryRequested},
	}

	h := newRecordingHandler()
	d := NewDispatcher(h, nil)
	for _, tt := range tests {
		require.NoError(t, d.Dispatch(testScope(), []byte(tt.raw)), tt.raw)
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.warps[tt.gameID])
	}

	assert.Error(t, d.Dispatch(testScope(), []byte(`{"type":"warp_success"}`)))
}

func TestDispatch_Scoring(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"type":               "scoring",
		"gameid":             "7",
		"winningteamignlist": []string{"Alex", "Bea"},
		"bedsbroken":         []string{"alex"},
		"players": map[string]any{
			"Alex": map[string]int{"kills": 5, "deaths": 1, "finalkills": 2},
			"Bea":  map[string]int{"kills": 5},
			"Cat":  map[string]int{"kills": 1, "deaths": 4},
		},
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	h := newRecordingHandler()
	require.NoError(t, NewDispatcher(h, nil).Dispatch(testScope(), data))
	require.Len(t, h.scorings, 1)

	event := h.scorings[0]
	assert.Equal(t, 7, event.GameID)
	assert.Equal(t, 0, event.WinningTeam)
	assert.Equal(t, []string{"Alex", "Bea"}, event.WinningIGNs)
	assert.Equal(t, []string{"Alex", "Bea"}, event.MVPs, "MVPs fall back to the kill leaders")
	assert.Equal(t, 1, event.Stats["Alex"].BedsBroken)
	assert.Equal(t, 2, event.Stats["Alex"].FinalKills)
	assert.Equal(t, 0, event.Stats["Cat"].BedsBroken)
}

func TestDispatch_ScoringWithTeamNumber(t *testing.T) {
	t.Parallel()

	h := newRecordingHandler()
	raw := `{"type":"scoring","gameid":8,"winningTeamNumber":2,"mvps":["Cat"],"players":{"Cat":{"kills":0}}}`
	require.NoError(t, NewDispatcher(h, nil).Dispatch(testScope(), []byte(raw)))
	require.Len(t, h.scorings, 1)
	assert.Equal(t, 2, h.scorings[0].WinningTeam)
	assert.Equal(t, []string{"Cat"}, h.scorings[0].MVPs)
}

func TestDispatch_Voiding(t *testing.T) {
	t.Parallel()

	h := newRecordingHandler()
	d := NewDispatcher(h, nil)
	require.NoError(t, d.Dispatch(testScope(), []byte(`{"type":"voiding","gameid":"9","reason":"crash"}`)))
	require.NoError(t, d.Dispatch(testScope(), []byte(`{"type":"voiding","gameid":"10"}`)))
	assert.Equal(t, "crash", h.voids[9])
	assert.Equal(t, "Voided by game server", h.voids[10])
}

func TestDispatch_MapsInfo(t *testing.T) {
	t.Parallel()

	maps := &recordingMaps{}
	raw := `{"type":"maps_info",
		"reserved":[{"name":"Lighthouse","maxplayers":8}],
		"locked":[{"name":"Pernicious","max_players":4}],
		"disabled":[{"name":""}]}`
	require.NoError(t, NewDispatcher(nil, maps).Dispatch(testScope(), []byte(raw)))

	assert.Equal(t, []models.MapInfo{{Name: "Lighthouse", MaxPlayers: 8}}, maps.reserved)
	assert.Equal(t, []models.MapInfo{
		{Name: "Lighthouse", MaxPlayers: 8},
		{Name: "Pernicious", MaxPlayers: 4, Locked: true},
	}, maps.all)
}

func TestDispatch_UnknownAndMalformed(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(newRecordingHandler(), nil)
	assert.NoError(t, d.Dispatch(testScope(), []byte(`{"type":"ping"}`)))
	assert.Error(t, d.Dispatch(testScope(), []byte(`not json`)))
}
