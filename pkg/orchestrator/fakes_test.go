// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbwleague/matchcoordinator/pkg/composer"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository/memory"
	"github.com/rbwleague/matchcoordinator/pkg/store"
	"github.com/rbwleague/matchcoordinator/pkg/testsetup"
	"github.com/rbwleague/matchcoordinator/pkg/validation"
)

type composeFunc func(players []string, queue models.Queue, maxGames int) (composer.Outcome, error)

type stubComposer struct {
	mu    sync.Mutex
	calls int
	fn    composeFunc
}

func (c *stubComposer) Compose(_ *envelope.Scope, players []string, queue models.Queue, maxGames int) (composer.Outcome, error) {
	c.mu.Lock()
	c.calls++
	fn := c.fn
	c.mu.Unlock()
	return fn(players, queue, maxGames)
}

func (c *stubComposer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// formGames takes capacity players per game, in queue order.
func formGames(players []string, queue models.Queue, maxGames int) (composer.Outcome, error) {
	var out composer.Outcome
	for i := 0; i < maxGames && (i+1)*queue.Capacity <= len(players); i++ {
		out.GamesCreated++
		out.GameIDs = append(out.GameIDs, i+1)
		out.Consumed = append(out.Consumed, players[i*queue.Capacity:(i+1)*queue.Capacity]...)
	}
	return out, nil
}

func oneGame(players []string, queue models.Queue, _ int) (composer.Outcome, error) {
	return formGames(players, queue, 1)
}

func failing(players []string, queue models.Queue, maxGames int) (composer.Outcome, error) {
	return composer.Outcome{}, fmt.Errorf("channel creation failed")
}

type stubGames struct {
	active atomic.Int32
}

func (g *stubGames) ActiveGameCount() int {
	return int(g.active.Load())
}

type stubValidator struct {
	delay time.Duration
	err   error
	keep  func(id string) bool
	// transient marks rejections caused by a failed check rather than ineligibility.
	transient func(id string) bool
}

func (v stubValidator) ValidateWithReport(scope *envelope.Scope, playerIDs []string, _ models.Queue) (validation.Report, error) {
	if v.delay > 0 {
		select {
		case <-scope.Ctx.Done():
			return validation.Report{}, scope.Ctx.Err()
		case <-time.After(v.delay):
		}
	}
	if v.err != nil {
		return validation.Report{}, v.err
	}
	var report validation.Report
	for _, id := range playerIDs {
		switch {
		case v.transient != nil && v.transient(id):
			report.Rejected = append(report.Rejected, validation.Rejection{PlayerID: id, Reason: constants.ReasonValidationError})
		case v.keep == nil || v.keep(id):
			report.Valid = append(report.Valid, id)
		default:
			report.Rejected = append(report.Rejected, validation.Rejection{PlayerID: id, Reason: constants.ReasonOffline})
		}
	}
	return report, nil
}

func (v stubValidator) Sweep(time.Time) int { return 0 }

// unreachablePlayers fails every bulk player load.
type unreachablePlayers struct {
	*memory.Store
}

func (unreachablePlayers) FindPlayers(context.Context, []string) ([]*models.Player, error) {
	return nil, errors.New("connection reset")
}

type fixture struct {
	repo       *memory.Store
	membership *store.Membership
	games      *stubGames
	random     *stubComposer
	draft      *stubComposer
	metrics    *testsetup.StubMetrics
	settings   Settings
	validator  Validator
}

func newFixture(t *testing.T, queues ...models.Queue) *fixture {
	t.Helper()
	f := &fixture{
		repo:       memory.NewStore(nil),
		membership: store.NewMembership(100),
		games:      &stubGames{},
		random:     &stubComposer{fn: formGames},
		draft:      &stubComposer{fn: formGames},
		metrics:    testsetup.NewStubMetrics(),
		settings:   DefaultSettings(),
	}
	// nothing fires on its own unless a test shortens these
	f.settings.ProcessingDelay = time.Hour
	f.settings.ImmediateDelay = time.Hour
	f.settings.RetryDelay = time.Hour

	for _, q := range queues {
		require.NoError(t, f.repo.SaveQueue(context.Background(), q))
	}
	return f
}

func (f *fixture) build(t *testing.T) *Orchestrator {
	t.Helper()
	o := New(Deps{
		Queues:     f.repo,
		Membership: f.membership,
		Validator:  f.validator,
		Games:      f.games,
		Random:     f.random,
		Draft:      f.draft,
		Metrics:    f.metrics,
	}, f.settings)
	t.Cleanup(o.Close)
	return o
}

func (f *fixture) fill(queueID string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-p%d", queueID, i)
		f.membership.Join(queueID, ids[i])
	}
	return ids
}

func randomQueue(id string, capacity int) models.Queue {
	return models.Queue{ID: id, Capacity: capacity, RatingMax: 5000, Mode: models.QueueModeRandom, Active: true}
}
