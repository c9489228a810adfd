// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package orchestrator

import (
	"context"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// Start runs the monitor loop until ctx is done or Close is called.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(o.baseCtx, cancel)

	o.monitor.Add(1)
	go func() {
		defer o.monitor.Done()
		defer stop()
		defer cancel()

		monitorTicker := time.NewTicker(o.settings.MonitorInterval)
		defer monitorTicker.Stop()
		sweepTicker := time.NewTicker(o.settings.CacheSweepInterval)
		defer sweepTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-monitorTicker.C:
				scope := envelope.NewRootScope(ctx, "monitorQueues", "")
				o.MonitorQueues(scope)
				scope.Finish()
			case now := <-sweepTicker.C:
				if n := o.sweepCaches(now); n > 0 {
					envelope.NewRootScope(ctx, "sweepCaches", "").Log.Debugf("[orchestrator] swept %d cache entries", n)
				}
			}
		}
	}()
}

// Stop ends the monitor loop and cancels pending timers.
func (o *Orchestrator) Stop() {
	o.Close()
}

// MonitorQueues is one monitor tick: the head of the priority list is
// scheduled, then every active queue is checked.
func (o *Orchestrator) MonitorQueues(rootScope *envelope.Scope) {
	scope := rootScope.NewChildScope("monitorQueues")
	defer scope.Finish()

	o.ProcessPriorityQueue()

	queues, err := o.deps.Queues.ActiveQueues(scope.Ctx)
	if err != nil {
		scope.Log.WithError(err).Error("[orchestrator] could not list active queues")
		return
	}

	summary := asyncutil.SettleAll(scope.Ctx, 0, queues, func(ctx context.Context, queue models.Queue) (struct{}, error) {
		o.checkQueue(scope.WithContext(ctx), queue)
		return struct{}{}, nil
	})
	if err := summary.Err(); err != nil {
		scope.Log.WithError(err).Warn("[orchestrator] monitor checks failed")
	}
}

func (o *Orchestrator) checkQueue(scope *envelope.Scope, queue models.Queue) {
	if dropped := o.deps.Membership.Truncate(queue.ID); dropped > 0 {
		scope.Log.Warnf("[orchestrator] queue %s over capacity, dropped %d entries", queue.ID, dropped)
		return
	}
	count := o.deps.Membership.Count(queue.ID)
	o.deps.Metrics.SetQueueSize(queue.ID, count)

	o.mu.Lock()
	st := o.stateLocked(queue.ID)
	now := o.now()
	priority := max(0, QueuePriority(count, queue.Capacity, st.lastProcessedAt, now)-st.penalty)
	st.priority = priority
	processing := st.processing
	if !processing && st.idleSince(now) > constants.IdleDecayAfter {
		st.decay(now)
	}
	o.mu.Unlock()

	if count >= queue.Capacity && !processing {
		if priority >= constants.PriorityThreshold {
			o.enqueuePriority(queue.ID, priority)
		} else {
			o.ScheduleQueueProcessing(queue.ID, false)
		}
	}

	if o.resetStuck(queue.ID) {
		scope.Log.Warnf("[orchestrator] reset stuck processing state of queue %s", queue.ID)
	}
}
