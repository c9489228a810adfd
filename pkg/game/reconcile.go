// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"fmt"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/common"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

type Finding struct {
	PlayerID string
	Expected models.GameState
	// Actual is empty when the player has no entry for the game.
	Actual models.GameState
	Detail string
}

// AuditReport compares a game's state with the history entry of every
// player. Score and void update players independently, so a partial failure
// shows up here as a finding.
type AuditReport struct {
	ID         string
	GameID     int
	State      models.GameState
	CheckedAt  time.Time
	Consistent bool
	Findings   []Finding
}

func (m *Manager) Reconcile(scope *envelope.Scope, gameID int) (AuditReport, error) {
	g, err := m.findGame(scope.Ctx, gameID)
	if err != nil {
		return AuditReport{}, err
	}
	now := m.clock()
	report := AuditReport{
		ID:        common.NewULID(now),
		GameID:    g.ID,
		State:     g.State,
		CheckedAt: now,
	}

	players, err := m.players.FindPlayers(scope.Ctx, g.Players())
	if err != nil {
		return AuditReport{}, fmt.Errorf("load players of game %d: %w", g.ID, err)
	}
	for _, id := range missingPlayers(g.Players(), players) {
		report.Findings = append(report.Findings, Finding{PlayerID: id, Expected: g.State, Detail: "profile not found"})
	}

	for _, p := range players {
		idx := p.RecentGameIndex(g.ID)
		if idx < 0 {
			report.Findings = append(report.Findings, Finding{PlayerID: p.ID, Expected: g.State, Detail: "no history entry"})
			continue
		}
		entry := p.RecentGames[idx]
		if entry.State != g.State {
			report.Findings = append(report.Findings, Finding{
				PlayerID: p.ID,
				Expected: g.State,
				Actual:   entry.State,
				Detail:   fmt.Sprintf("history says %s", entry.State),
			})
			continue
		}
		if g.State == models.GameStateScored && entry.Won != (g.TeamOf(p.ID) == winnerTeamOf(g)) {
			report.Findings = append(report.Findings, Finding{
				PlayerID: p.ID,
				Expected: g.State,
				Actual:   entry.State,
				Detail:   "win flag disagrees with the game winners",
			})
		}
	}
	report.Consistent = len(report.Findings) == 0
	if !report.Consistent {
		scope.Log.Warnf("[game] game %d has %d inconsistent players", g.ID, len(report.Findings))
	}
	return report, nil
}

func winnerTeamOf(g *models.Game) int {
	if len(g.Winners) == 0 {
		return 0
	}
	return g.TeamOf(g.Winners[0])
}
