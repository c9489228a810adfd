// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"context"
	"fmt"
	"strings"

	validator "github.com/AccelByte/justice-input-validation-go"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

type Reversal string

const (
	// ReversalApplied undid a scored result.
	ReversalApplied Reversal = "reverted"
	// ReversalPending marked a never-scored entry voided.
	ReversalPending Reversal = "pending"
	// ReversalNone found the entry already voided.
	ReversalNone Reversal = "none"
	// ReversalMissing added a voided entry where the player had none.
	ReversalMissing Reversal = "missing"
)

type voidRequest struct {
	GameID int    `valid:"required,range(1|2147483647)"`
	Reason string `valid:"required,stringlength(1|2000)"`
}

type PlayerReversal struct {
	PlayerID     string
	Kind         Reversal
	RatingChange int
}

type VoidResult struct {
	GameID    int
	Reversals []PlayerReversal
	Failed    []string
	// Missing lists game players with no stored profile.
	Missing []string
}

// VoidGame moves a pending or scored game to voided and reverts whatever the
// game added to each player. Running it against a player whose entry is not
// scored changes nothing for that player.
func (m *Manager) VoidGame(scope *envelope.Scope, gameID int, reason string) (VoidResult, error) {
	reason = strings.TrimSpace(reason)
	if _, err := validator.ValidateStruct(voidRequest{GameID: gameID, Reason: reason}); err != nil {
		return VoidResult{}, fmt.Errorf("%w: %v", models.ErrInvalidVoidRequest, err)
	}
	scope.SetAttributes(envelope.GameIDTag, gameID)

	unlock := m.lockGame(gameID)
	defer unlock()

	g, err := m.findGame(scope.Ctx, gameID)
	if err != nil {
		return VoidResult{}, err
	}
	if g.State == models.GameStateVoided {
		return VoidResult{}, fmt.Errorf("game %d: %w", g.ID, models.ErrGameAlreadyVoided)
	}
	if err := g.ValidateTeams(); err != nil {
		return VoidResult{}, fmt.Errorf("game %d: %w", g.ID, err)
	}

	players, err := m.players.FindPlayers(scope.Ctx, g.Players())
	if err != nil {
		return VoidResult{}, fmt.Errorf("load players of game %d: %w", g.ID, err)
	}
	result := VoidResult{GameID: g.ID, Missing: missingPlayers(g.Players(), players)}
	if len(result.Missing) > 0 {
		scope.Log.Warnf("[game] game %d: voiding without profiles for %v", g.ID, result.Missing)
	}

	now := m.clock()
	summary := asyncutil.SettleAll(scope.Ctx, constants.PlayerFanOutLimit, players, func(ctx context.Context, p *models.Player) (PlayerReversal, error) {
		return m.revertPlayer(ctx, g, p)
	})
	for i, r := range summary.Results {
		if r.Err != nil {
			result.Failed = append(result.Failed, players[i].ID)
			scope.Log.WithError(r.Err).Errorf("[game] game %d: player %s not reverted", g.ID, players[i].ID)
			continue
		}
		if r.Value.Kind != ReversalApplied {
			scope.Log.Debugf("[game] game %d: player %s had nothing to revert (%s)", g.ID, r.Value.PlayerID, r.Value.Kind)
		}
		result.Reversals = append(result.Reversals, r.Value)
	}

	g.State = models.GameStateVoided
	g.Winners = nil
	g.Losers = nil
	g.MVPs = nil
	g.BedBreakers = nil
	g.Reason = reason
	g.EndTime = now
	if err := m.games.SaveGame(scope.Ctx, g); err != nil {
		return result, fmt.Errorf("save voided game %d: %w", g.ID, err)
	}
	m.metrics.AddGameTransition(string(models.GameStateVoided))

	m.refreshNicknames(scope, players)
	m.announceVoid(scope, g, reason)
	m.notifyServer(scope, gameserver.NewGameVoided(g.ID, reason, ignsOf(players)))
	m.scheduleCleanup(scope, g)

	scope.Log.Infof("[game] game %d voided: %s", g.ID, reason)
	return result, nil
}

func (m *Manager) revertPlayer(ctx context.Context, g *models.Game, p *models.Player) (PlayerReversal, error) {
	rev := PlayerReversal{PlayerID: p.ID}

	idx := p.RecentGameIndex(g.ID)
	if idx < 0 {
		rev.Kind = ReversalMissing
		p.PutRecentGame(models.RecentGame{
			GameID:    g.ID,
			QueueID:   g.QueueID,
			Map:       g.Map,
			State:     models.GameStateVoided,
			Date:      g.StartTime,
			StartTime: g.StartTime,
		}, constants.RecentGamesCap)
		return rev, m.players.SavePlayer(ctx, p)
	}

	entry := p.RecentGames[idx]
	switch entry.State {
	case models.GameStateVoided:
		rev.Kind = ReversalNone
		return rev, nil
	case models.GameStateScored:
		rev.Kind = ReversalApplied
		rev.RatingChange = -entry.RatingChange
		revertOutcome(p, entry)
	default:
		rev.Kind = ReversalPending
	}

	entry.State = models.GameStateVoided
	entry.RatingChange = 0
	entry.Won = false
	entry.MVP = false
	p.RecentGames[idx] = entry
	return rev, m.players.SavePlayer(ctx, p)
}

func missingPlayers(ids []string, found []*models.Player) []string {
	have := make(map[string]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
