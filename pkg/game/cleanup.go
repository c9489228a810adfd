// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// scheduleCleanup retires a finished game and deletes its channels after the
// cleanup delay so players can read the result first.
func (m *Manager) scheduleCleanup(scope *envelope.Scope, g *models.Game) {
	delay := m.timing().CleanupDelay
	channels := g.Channels.All()

	m.mu.Lock()
	delete(m.active, g.ID)
	count := len(m.active)
	if w, ok := m.warps[g.ID]; ok {
		w.stop()
		delete(m.warps, g.ID)
	}
	if t, ok := m.cleanups[g.ID]; ok {
		t.Stop()
	}
	detached := scope.WithContext(context.WithoutCancel(scope.Ctx))
	m.cleanups[g.ID] = time.AfterFunc(delay, func() {
		m.mu.Lock()
		delete(m.cleanups, g.ID)
		m.mu.Unlock()
		m.deleteChannels(detached, channels)
	})
	m.mu.Unlock()

	m.metrics.SetActiveGames(count)
	m.post(scope, g.Channels.Text, fmt.Sprintf("This channel will be deleted in %d seconds.", int(delay.Seconds())))
}

func (m *Manager) deleteChannels(scope *envelope.Scope, ids []string) {
	ctx := context.WithoutCancel(scope.Ctx)
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := m.guild.DeleteChannel(ctx, id, constants.GuildPriorityCleanup); err != nil {
			scope.Log.WithError(err).Warnf("[game] channel %s not deleted", id)
		}
	}
}

// PendingCleanups reports how many games still have channels waiting for deletion.
func (m *Manager) PendingCleanups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cleanups)
}
