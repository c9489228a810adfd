// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"context"
	"testing"
	"time"

	"github.com/onsi/gomega"

	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/testsetup"
)

func (f *fixture) gameState(id int) models.GameState {
	g, err := f.store.FindGame(context.Background(), id)
	if err != nil {
		return ""
	}
	return g.State
}

func TestInitiateWarp_SendsTeamsByIGN(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	_, players := f.startGame(t, 1)

	g.Expect(f.m.InitiateWarp(g.TestScope, 1)).To(gomega.Succeed())

	warps := f.server.WarpRequests()
	g.Expect(warps).To(gomega.HaveLen(1))
	g.Expect(warps[0].GameID).To(gomega.Equal("1"))
	g.Expect(warps[0].IsRanked).To(gomega.BeTrue())
	g.Expect(warps[0].Team1.Players).To(gomega.Equal([]string{players[0].IGN, players[1].IGN}))
	g.Expect(warps[0].Team2.Players).To(gomega.Equal([]string{players[2].IGN, players[3].IGN}))
	g.Expect(f.m.PendingWarps()).To(gomega.Equal(1))

	f.m.HandleWarpResult(g.TestScope, 1, gameserver.WarpSucceeded)
	g.Expect(f.m.PendingWarps()).To(gomega.Equal(0))
}

func TestInitiateWarp_UnknownGame(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)

	g.Expect(f.m.InitiateWarp(g.TestScope, 5)).To(gomega.MatchError(gomega.ContainSubstring("game not found")))
}

func TestHandleWarpResult_RetriesThenVoids(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	f.startGame(t, 1)
	g.Expect(f.m.InitiateWarp(g.TestScope, 1)).To(gomega.Succeed())

	for attempt := 2; attempt <= 4; attempt++ {
		f.m.HandleWarpResult(g.TestScope, 1, gameserver.WarpArenaNotFound)
		g.Eventually(func() int { return len(f.server.WarpRequests()) }).
			WithTimeout(time.Second).Should(gomega.Equal(attempt))
	}
	g.Expect(f.gameState(1)).To(gomega.Equal(models.GameStatePending))

	f.m.HandleWarpResult(g.TestScope, 1, gameserver.WarpArenaNotFound)

	g.Expect(f.gameState(1)).To(gomega.Equal(models.GameStateVoided))
	stored, err := f.store.FindGame(context.Background(), 1)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(stored.Reason).To(gomega.Equal("Warp failed: Arena not found"))
	g.Expect(f.metrics.WarpFailures(string(gameserver.WarpArenaNotFound))).To(gomega.Equal(1))
	g.Expect(f.m.PendingWarps()).To(gomega.Equal(0))
}

func TestHandleWarpResult_TimeoutVoids(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	f.m.SetTimings(Timings{
		WarpTimeout:    20 * time.Millisecond,
		WarpRetryDelay: 5 * time.Millisecond,
		MaxWarpRetries: 2,
		CleanupDelay:   time.Hour,
	})
	f.startGame(t, 1)
	g.Expect(f.m.InitiateWarp(g.TestScope, 1)).To(gomega.Succeed())

	g.Eventually(func() models.GameState { return f.gameState(1) }).
		WithTimeout(2 * time.Second).Should(gomega.Equal(models.GameStateVoided))
	g.Expect(f.server.WarpRequests()).To(gomega.HaveLen(3))
	g.Expect(f.metrics.WarpFailures(string(gameserver.WarpTimedOut))).To(gomega.Equal(1))
}

func TestHandleWarpResult_RetryRequestDoesNotCountAnAttempt(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	f.m.SetTimings(Timings{WarpTimeout: time.Hour, WarpRetryDelay: time.Millisecond, MaxWarpRetries: 0, CleanupDelay: time.Hour})
	f.startGame(t, 1)
	g.Expect(f.m.InitiateWarp(g.TestScope, 1)).To(gomega.Succeed())

	f.m.HandleWarpResult(g.TestScope, 1, gameserver.WarpRetryRequested)
	f.m.HandleWarpResult(g.TestScope, 1, gameserver.WarpRetryRequested)

	g.Expect(f.server.WarpRequests()).To(gomega.HaveLen(3))
	g.Expect(f.gameState(1)).To(gomega.Equal(models.GameStatePending))
}

func TestScheduledCleanup_DeletesChannels(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	f.m.SetTimings(Timings{WarpTimeout: time.Hour, WarpRetryDelay: time.Millisecond, MaxWarpRetries: 3, CleanupDelay: 10 * time.Millisecond})
	game, _ := f.startGame(t, 1)

	_, err := f.m.VoidGame(g.TestScope, 1, "test")
	g.Expect(err).NotTo(gomega.HaveOccurred())

	g.Eventually(f.guild.Deleted).WithTimeout(time.Second).
		Should(gomega.ConsistOf(game.Channels.Text, game.Channels.Team1Voice, game.Channels.Team2Voice))
	g.Eventually(f.m.PendingCleanups).WithTimeout(time.Second).Should(gomega.Equal(0))
}
