// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"context"
	"sync"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/game"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

type fakeCreator struct {
	mu      sync.Mutex
	lastID  int
	specs   []game.GameSpec
	warped  []int
	failErr error
}

func (f *fakeCreator) NextGameID(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastID++
	return f.lastID, nil
}

func (f *fakeCreator) CreateGame(_ *envelope.Scope, spec game.GameSpec) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.specs = append(f.specs, spec)
	return &models.Game{
		ID:      spec.ID,
		QueueID: spec.QueueID,
		Map:     spec.Map,
		Team1:   spec.Team1,
		Team2:   spec.Team2,
		State:   models.GameStatePending,
	}, nil
}

func (f *fakeCreator) InitiateWarp(_ *envelope.Scope, gameID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warped = append(f.warped, gameID)
	return nil
}

func (f *fakeCreator) created() []game.GameSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]game.GameSpec(nil), f.specs...)
}

type fixedMap string

func (m fixedMap) Select(*envelope.Scope, int) string { return string(m) }

type recordingQueue struct {
	mu     sync.Mutex
	joined []string
}

func (r *recordingQueue) Join(_ string, playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = append(r.joined, playerID)
	return true
}

func (r *recordingQueue) players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.joined...)
}
