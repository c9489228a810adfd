// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
)

var _ gameserver.EventHandler = (*Manager)(nil)

func (m *Manager) HandleScoring(scope *envelope.Scope, event gameserver.ScoringEvent) {
	if _, err := m.ScoreGame(scope, ScoreRequestFromEvent(event)); err != nil {
		scope.Log.WithError(err).Errorf("[game] scoring report for game %d rejected", event.GameID)
	}
}

func (m *Manager) HandleVoiding(scope *envelope.Scope, gameID int, reason string) {
	if _, err := m.VoidGame(scope, gameID, reason); err != nil {
		scope.Log.WithError(err).Errorf("[game] void report for game %d rejected", gameID)
	}
}
