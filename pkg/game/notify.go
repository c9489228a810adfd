// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// Nickname renders the guild nickname shown for a player.
func Nickname(p *models.Player) string {
	return fmt.Sprintf("[%d] %s", p.Rating, p.IGN)
}

func (m *Manager) refreshNicknames(scope *envelope.Scope, players []*models.Player) {
	summary := asyncutil.SettleAll(scope.Ctx, constants.PlayerFanOutLimit, players, func(ctx context.Context, p *models.Player) (struct{}, error) {
		return struct{}{}, m.guild.SetNickname(ctx, p.ID, Nickname(p), constants.GuildPriorityNickname)
	})
	if summary.Failed > 0 {
		scope.Log.WithError(summary.Err()).Debugf("[game] %d nicknames not refreshed", summary.Failed)
	}
}

func (m *Manager) announceScore(scope *envelope.Scope, g *models.Game, result ScoreResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "Game #%d has been scored. Team %d wins!\n", g.ID, result.WinningTeam)
	for _, c := range result.Changes {
		sign := "+"
		if c.RatingChange < 0 {
			sign = ""
		}
		fmt.Fprintf(&b, "%s: %s%d (%d)", c.IGN, sign, c.RatingChange, c.Rating)
		if c.MVP {
			b.WriteString(" MVP")
		}
		if c.LevelUp {
			b.WriteString(" level up")
		}
		b.WriteString("\n")
	}
	m.post(scope, m.scoringChannel, b.String())
	m.post(scope, g.Channels.Text, fmt.Sprintf("Game #%d has been scored. Team %d wins!", g.ID, result.WinningTeam))
}

func (m *Manager) announceVoid(scope *envelope.Scope, g *models.Game, reason string) {
	msg := fmt.Sprintf("Game #%d has been voided: %s", g.ID, reason)
	m.post(scope, m.scoringChannel, msg)
	m.post(scope, g.Channels.Text, msg)
}

func (m *Manager) notifyServer(scope *envelope.Scope, msg any) {
	if m.server == nil {
		return
	}
	if err := m.server.Send(scope.Ctx, msg); err != nil {
		scope.Log.WithError(err).Warn("[game] game server notification not sent")
	}
}
