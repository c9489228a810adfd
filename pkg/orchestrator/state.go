// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package orchestrator

import (
	"math"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/constants"
)

// queueState is the processing bookkeeping of one queue. Guarded by Orchestrator.mu.
type queueState struct {
	processing bool
	// generation changes on every pass and on a stuck reset, so a late
	// finishing pass cannot clear the flag of a newer one.
	generation uint64
	startedAt  time.Time

	lastProcessedAt time.Time
	retryCount      int
	exhausted       bool
	retryTimer      *time.Timer
	lastErrors      []string
	penalty         int
	priority        int

	processed      int
	succeeded      int
	errors         int
	gamesCreated   int
	avgProcessTime time.Duration
	decayedAt      time.Time
}

func (o *Orchestrator) stateLocked(queueID string) *queueState {
	st, ok := o.states[queueID]
	if !ok {
		st = &queueState{}
		o.states[queueID] = st
	}
	return st
}

func (st *queueState) stopRetry() {
	if st.retryTimer != nil {
		st.retryTimer.Stop()
		st.retryTimer = nil
	}
}

// record folds one finished pass into the counters.
func (st *queueState) record(success bool, games int, elapsed time.Duration, now time.Time) {
	st.processed++
	if success {
		st.succeeded++
	} else {
		st.errors++
	}
	st.gamesCreated += games
	st.lastProcessedAt = now
	st.avgProcessTime = (st.avgProcessTime*time.Duration(st.processed-1) + elapsed) / time.Duration(st.processed)
}

// idleSince is the time since the last pass or decay, zero for a queue never processed.
func (st *queueState) idleSince(now time.Time) time.Duration {
	last := st.lastProcessedAt
	if st.decayedAt.After(last) {
		last = st.decayedAt
	}
	if last.IsZero() {
		return 0
	}
	return now.Sub(last)
}

// decay scales the counters down once a queue has been idle long enough.
func (st *queueState) decay(now time.Time) {
	st.decayedAt = now
	scale := func(v int) int {
		return int(math.Floor(float64(v) * constants.IdleDecayFactor))
	}
	st.processed = scale(st.processed)
	st.succeeded = scale(st.succeeded)
	st.errors = scale(st.errors)
}

func (st *queueState) errorRate() float64 {
	if st.processed == 0 {
		return 0
	}
	return float64(st.errors) / float64(st.processed)
}

// begin marks queueID as processing. It returns false when a pass is already running.
func (o *Orchestrator) begin(queueID string) (uint64, time.Duration, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.stateLocked(queueID)
	now := o.now()
	if st.processing {
		return 0, now.Sub(st.startedAt), false
	}
	st.processing = true
	st.generation++
	st.startedAt = now
	return st.generation, 0, true
}

// resetStuck clears a processing flag held longer than LockTimeout.
func (o *Orchestrator) resetStuck(queueID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[queueID]
	if !ok || !st.processing || o.now().Sub(st.startedAt) <= o.settings.LockTimeout {
		return false
	}
	st.processing = false
	st.generation++
	st.retryCount = 0
	st.lastErrors = nil
	st.errors++
	st.stopRetry()
	return true
}
