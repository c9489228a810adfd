// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package orchestrator

import (
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
)

// ScheduleQueueProcessing replaces any pending run of queueID with a new one
// after ImmediateDelay or ProcessingDelay.
func (o *Orchestrator) ScheduleQueueProcessing(queueID string, immediate bool) {
	delay := o.settings.ProcessingDelay
	if immediate {
		delay = o.settings.ImmediateDelay
	}
	o.scheduleAfter(queueID, delay)
}

func (o *Orchestrator) scheduleAfter(queueID string, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if pending, ok := o.timers[queueID]; ok {
		pending.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		o.mu.Lock()
		if o.timers[queueID] != t {
			o.mu.Unlock()
			return
		}
		delete(o.timers, queueID)
		o.mu.Unlock()

		scope := envelope.NewRootScope(o.baseCtx, "scheduledProcessQueue", "")
		defer scope.Finish()
		o.ProcessQueue(scope, queueID)
	})
	o.timers[queueID] = t
}

// PendingRuns is the number of queues with a scheduled run.
func (o *Orchestrator) PendingRuns() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.timers)
}

// scheduleRetryLocked arms the retry timer of queueID unless one is already pending.
func (o *Orchestrator) scheduleRetryLocked(queueID string, st *queueState) {
	if st.retryTimer != nil || o.closed {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(o.settings.RetryDelay, func() {
		o.mu.Lock()
		current := st.retryTimer == t
		if current {
			st.retryTimer = nil
		}
		o.mu.Unlock()
		if current {
			o.ScheduleQueueProcessing(queueID, false)
		}
	})
	st.retryTimer = t
}

// ProcessAllQueues processes every active queue one after another,
// InterQueueDelay apart.
func (o *Orchestrator) ProcessAllQueues(rootScope *envelope.Scope) (map[string]Result, error) {
	scope := rootScope.NewChildScope("processAllQueues")
	defer scope.Finish()

	queues, err := o.deps.Queues.ActiveQueues(scope.Ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string]Result, len(queues))
	for i, queue := range queues {
		if i > 0 {
			if err := asyncutil.Sleep(scope.Ctx, o.settings.InterQueueDelay); err != nil {
				return results, err
			}
		}
		results[queue.ID] = o.ProcessQueue(scope, queue.ID)
	}
	return results, nil
}
