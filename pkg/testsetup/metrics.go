// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"sync"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/metrics"
)

// StubMetrics discards everything except the counters tests assert on.
type StubMetrics struct {
	mu                   sync.Mutex
	retries              map[string]int
	validationRejections map[string]int
	gamesCreated         map[string]int
	draftOutcomes        map[string]int
	transitions          map[string]int
	warpFailures         map[string]int
}

func (s *StubMetrics) SetActiveGames(count int) {}

func (s *StubMetrics) SetQueueSize(queueID string, size int) {}

func (s *StubMetrics) AddQueueProcessingElapsedTimeMs(queueID, outcome string, elapsedTime time.Duration) {
}

func (s *StubMetrics) AddGamesCreated(queueID, mode string, count int) {
	s.add(&s.gamesCreated, queueID, count)
}

func (s *StubMetrics) AddQueueRetry(queueID string) {
	s.add(&s.retries, queueID, 1)
}

func (s *StubMetrics) AddValidationRejection(queueID, reason string) {
	s.add(&s.validationRejections, reason, 1)
}

func (s *StubMetrics) AddDraftOutcome(outcome string) {
	s.add(&s.draftOutcomes, outcome, 1)
}

func (s *StubMetrics) AddGameTransition(state string) {
	s.add(&s.transitions, state, 1)
}

func (s *StubMetrics) AddWarpFailure(reason string) {
	s.add(&s.warpFailures, reason, 1)
}

func (s *StubMetrics) add(m *map[string]int, key string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[key] += n
}

func (s *StubMetrics) get(m *map[string]int, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*m)[key]
}

func (s *StubMetrics) Retries(queueID string) int { return s.get(&s.retries, queueID) }

func (s *StubMetrics) ValidationRejections(reason string) int {
	return s.get(&s.validationRejections, reason)
}

func (s *StubMetrics) GamesCreated(queueID string) int { return s.get(&s.gamesCreated, queueID) }

func (s *StubMetrics) DraftOutcomes(outcome string) int { return s.get(&s.draftOutcomes, outcome) }

func (s *StubMetrics) Transitions(state string) int { return s.get(&s.transitions, state) }

func (s *StubMetrics) WarpFailures(reason string) int { return s.get(&s.warpFailures, reason) }

// NewStubMetrics is NewMetrics with the concrete type, for counter assertions.
func NewStubMetrics() *StubMetrics {
	return &StubMetrics{}
}

func NewMetrics() metrics.CoordinatorMetrics {
	return &StubMetrics{}
}
