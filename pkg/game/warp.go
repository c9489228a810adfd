// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// warpRequest tracks the outstanding warp of one game. Guarded by Manager.mu.
type warpRequest struct {
	msg      gameserver.WarpPlayers
	attempts int
	timeout  *time.Timer
	retry    *time.Timer
}

func (w *warpRequest) stop() {
	if w.timeout != nil {
		w.timeout.Stop()
	}
	if w.retry != nil {
		w.retry.Stop()
	}
}

// InitiateWarp asks the game server to move the players of a game into an
// arena. A timeout counts as a failed attempt. The request stays registered
// even when the first send fails, so the timeout still fires.
func (m *Manager) InitiateWarp(scope *envelope.Scope, gameID int) error {
	g, ok := m.activeGame(gameID)
	if !ok {
		return fmt.Errorf("warp game %d: %w", gameID, models.ErrGameNotFound)
	}
	team1, err := m.ignsFor(scope.Ctx, g.Team1)
	if err != nil {
		return err
	}
	team2, err := m.ignsFor(scope.Ctx, g.Team2)
	if err != nil {
		return err
	}
	msg := gameserver.NewWarpPlayers(g.ID, g.Map, g.Ranked, team1, team2)

	m.mu.Lock()
	if old, ok := m.warps[gameID]; ok {
		old.stop()
	}
	w := &warpRequest{msg: msg}
	m.warps[gameID] = w
	m.armTimeoutLocked(scope, gameID, w)
	m.mu.Unlock()

	if err := m.server.Send(scope.Ctx, msg); err != nil {
		return fmt.Errorf("send warp for game %d: %w", gameID, err)
	}
	scope.Log.Infof("[game] warp requested for game %d on %s", gameID, g.Map)
	return nil
}

func (m *Manager) ignsFor(ctx context.Context, ids []string) ([]string, error) {
	players, err := m.players.FindPlayers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	return ignsOf(players), nil
}

func (m *Manager) armTimeoutLocked(scope *envelope.Scope, gameID int, w *warpRequest) {
	detached := scope.WithContext(context.WithoutCancel(scope.Ctx))
	w.timeout = time.AfterFunc(m.timings.WarpTimeout, func() {
		m.HandleWarpResult(detached, gameID, gameserver.WarpTimedOut)
	})
}

// HandleWarpResult applies the server's answer to an outstanding warp.
// Failures are retried after a delay until the attempts run out, then the
// game is voided.
func (m *Manager) HandleWarpResult(scope *envelope.Scope, gameID int, outcome gameserver.WarpOutcome) {
	m.mu.Lock()
	w, ok := m.warps[gameID]
	if !ok {
		m.mu.Unlock()
		scope.Log.Debugf("[game] warp result %q for game %d without a pending warp", outcome, gameID)
		return
	}

	switch outcome {
	case gameserver.WarpSucceeded:
		w.stop()
		delete(m.warps, gameID)
		m.mu.Unlock()
		scope.Log.Infof("[game] players of game %d warped", gameID)
		return

	case gameserver.WarpRetryRequested:
		w.stop()
		m.armTimeoutLocked(scope, gameID, w)
		msg := w.msg
		m.mu.Unlock()
		m.resend(scope, gameID, msg)
		return
	}

	if w.attempts < m.timings.MaxWarpRetries {
		w.attempts++
		attempt := w.attempts
		w.stop()
		detached := scope.WithContext(context.WithoutCancel(scope.Ctx))
		w.retry = time.AfterFunc(m.timings.WarpRetryDelay, func() {
			m.mu.Lock()
			current, ok := m.warps[gameID]
			if !ok || current != w {
				m.mu.Unlock()
				return
			}
			m.armTimeoutLocked(detached, gameID, w)
			msg := w.msg
			m.mu.Unlock()
			m.resend(detached, gameID, msg)
		})
		m.mu.Unlock()
		scope.Log.Warnf("[game] warp of game %d failed (%s), retry %d/%d", gameID, outcome, attempt, m.timing().MaxWarpRetries)
		return
	}

	w.stop()
	delete(m.warps, gameID)
	m.mu.Unlock()

	m.metrics.AddWarpFailure(string(outcome))
	if _, err := m.VoidGame(scope, gameID, "Warp failed: "+string(outcome)); err != nil {
		scope.Log.WithError(err).Errorf("[game] game %d not voided after warp failure", gameID)
	}
}

func (m *Manager) resend(scope *envelope.Scope, gameID int, msg gameserver.WarpPlayers) {
	if err := m.server.Send(scope.Ctx, msg); err != nil {
		scope.Log.WithError(err).Warnf("[game] warp resend for game %d failed", gameID)
	}
}

// PendingWarps lists games still waiting for a warp answer.
func (m *Manager) PendingWarps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.warps)
}
