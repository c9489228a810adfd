// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/composer"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
	"github.com/rbwleague/matchcoordinator/pkg/validation"
)

// pass carries what finish needs to know about one processing pass.
type pass struct {
	result    Result
	retryable bool
	capacity  int
	mode      models.QueueMode
}

// ProcessQueue runs one processing pass over queueID. A pass already running
// for the queue makes this a no-op that still reports success.
func (o *Orchestrator) ProcessQueue(rootScope *envelope.Scope, queueID string) Result {
	scope := rootScope.NewChildScope(constants.ProcessQueueFunction)
	defer scope.Finish()
	scope.SetAttributes(envelope.QueueIDTag, queueID)

	generation, running, ok := o.begin(queueID)
	if !ok {
		if running < constants.ReentryWindow {
			scope.Log.Debugf("[orchestrator] queue %s already processing (%s ago)", queueID, running)
		} else {
			scope.Log.Infof("[orchestrator] queue %s still processing after %s", queueID, running)
		}
		return Result{
			QueueID:           queueID,
			Success:           true,
			AlreadyProcessing: true,
			Errors:            []string{constants.ReasonAlreadyProcessing},
		}
	}

	start := time.Now()
	p := o.process(scope, queueID)
	elapsed := time.Since(start)

	result := o.finish(scope, queueID, generation, p, elapsed)

	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	o.deps.Metrics.AddQueueProcessingElapsedTimeMs(queueID, outcome, elapsed)
	if result.GamesCreated > 0 {
		o.deps.Metrics.AddGamesCreated(queueID, string(p.mode), result.GamesCreated)
	}
	return result
}

func (o *Orchestrator) process(scope *envelope.Scope, queueID string) pass {
	p := pass{result: Result{QueueID: queueID}}

	active := o.deps.Games.ActiveGameCount()
	buffer := o.capacityBuffer()
	if active >= o.settings.MaxConcurrentGames-buffer {
		scope.Log.Warnf("[orchestrator] near capacity: %d/%d games (buffer %d)", active, o.settings.MaxConcurrentGames, buffer)
		p.result.Errors = []string{constants.ReasonNearCapacity}
		return p
	}

	queue, err := o.queueConfig(scope.Ctx, queueID)
	switch {
	case errors.Is(err, repository.ErrNotFound) || (err == nil && !queue.Active):
		p.result.Errors = []string{fmt.Sprintf(constants.ReasonQueueNotFound, queueID)}
		return p
	case err != nil:
		scope.Log.WithError(err).Errorf("[orchestrator] could not load queue %s", queueID)
		p.result.Errors = []string{err.Error()}
		p.retryable = true
		return p
	}
	p.capacity = queue.Capacity
	p.mode = queue.EffectiveMode()

	members := o.deps.Membership.Members(queueID)
	o.deps.Metrics.SetQueueSize(queueID, len(members))
	if len(members) < queue.Capacity {
		p.result.Success = true
		return p
	}

	valid := o.validate(scope, members, queue)
	if len(valid) < queue.Capacity {
		p.result.Success = true
		return p
	}

	maxGames := min(len(valid)/queue.Capacity, o.settings.MaxConcurrentGames-active-buffer, o.settings.MaxGamesPerPass)
	if maxGames <= 0 {
		p.result.Success = true
		return p
	}
	if queue.Mode == models.QueueModeDraft && p.mode != models.QueueModeDraft {
		scope.Log.Infof("[orchestrator] using random teams for %d-player queue %s", queue.Capacity, queueID)
	}

	out, err := o.compose(scope, o.composerFor(queue), valid, queue, maxGames)
	p.result.GamesCreated = out.GamesCreated
	p.result.GameIDs = out.GameIDs
	if err != nil {
		scope.Log.WithError(err).Errorf("[orchestrator] processing queue %s failed after %d games", queueID, out.GamesCreated)
		p.result.Errors = []string{fmt.Sprintf("Processing failed: %s", err)}
		if out.GamesCreated == 0 {
			p.retryable = true
			return p
		}
	}
	p.result.Success = true
	return p
}

// validate runs the validation stage under ValidationTimeout. On error or
// timeout every member is used unvalidated. Ineligible players leave the
// queue; players held back by a failed check stay queued for the next pass.
func (o *Orchestrator) validate(scope *envelope.Scope, members []string, queue models.Queue) []string {
	if o.deps.Validator == nil {
		return members
	}
	child := scope.NewChildScope(constants.ValidateFunction)
	defer child.Finish()

	report, err := asyncutil.WithTimeout(child.Ctx, o.settings.ValidationTimeout, func(ctx context.Context) (validation.Report, error) {
		return o.deps.Validator.ValidateWithReport(child.WithContext(ctx), members, queue)
	})
	if err != nil {
		scope.Log.WithError(err).Warnf("[orchestrator] validation of queue %s failed, using %d unvalidated players", queue.ID, len(members))
		return members
	}

	if n := o.deps.Membership.Remove(queue.ID, report.Ineligible()); n > 0 {
		scope.Log.Infof("[orchestrator] removed %d invalid players from queue %s", n, queue.ID)
	}
	return report.Valid
}

// compose runs the composer under ComposerTimeout. Consumed players leave the
// queue when the composer returns, even if that happens after the deadline.
func (o *Orchestrator) compose(scope *envelope.Scope, c composer.Composer, players []string, queue models.Queue, maxGames int) (composer.Outcome, error) {
	child := scope.NewChildScope(constants.ComposeFunction)
	defer child.Finish()

	return asyncutil.WithTimeout(child.Ctx, o.settings.ComposerTimeout, func(ctx context.Context) (composer.Outcome, error) {
		out, err := c.Compose(child.WithContext(ctx), players, queue, maxGames)
		o.deps.Membership.Remove(queue.ID, out.Consumed)
		return out, err
	})
}

// finish releases the queue, books the pass and arranges retries or follow-ups.
func (o *Orchestrator) finish(scope *envelope.Scope, queueID string, generation uint64, p pass, elapsed time.Duration) Result {
	result := p.result

	o.mu.Lock()
	st := o.stateLocked(queueID)
	if st.generation != generation {
		// reset as stuck while running, a newer pass owns the state now
		o.mu.Unlock()
		scope.Log.Warnf("[orchestrator] queue %s finished after being reset", queueID)
		return result
	}
	st.processing = false
	st.record(result.Success, result.GamesCreated, elapsed, o.now())

	switch {
	case result.Success:
		st.retryCount = 0
		st.exhausted = false
		st.penalty = 0
		st.lastErrors = nil
		st.stopRetry()
	case p.retryable:
		st.retryCount++
		st.lastErrors = append(st.lastErrors, result.Errors...)
		if st.retryCount <= o.settings.MaxRetries {
			scope.Log.Infof("[orchestrator] scheduling retry %d/%d for queue %s", st.retryCount, o.settings.MaxRetries, queueID)
			o.deps.Metrics.AddQueueRetry(queueID)
			o.scheduleRetryLocked(queueID, st)
		} else {
			scope.Log.Errorf("[orchestrator] max retries exceeded for queue %s", queueID)
			result.Errors = append(result.Errors, constants.ReasonMaxRetries)
			st.exhausted = true
			st.retryCount = 0
			st.penalty = constants.PriorityPenalty
			st.priority = max(0, st.priority-constants.PriorityPenalty)
		}
	default:
		st.lastErrors = result.Errors
	}
	o.mu.Unlock()

	if result.Success && result.GamesCreated > 0 && p.capacity > 0 && o.deps.Membership.Count(queueID) >= p.capacity {
		delay := o.settings.ProcessingDelay
		if result.GamesCreated > 1 {
			delay = delay * 3 / 2
		}
		o.scheduleAfter(queueID, delay)
	}
	return result
}
