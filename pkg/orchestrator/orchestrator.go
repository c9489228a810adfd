// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package orchestrator decides when a queue is processed and drives one
// processing pass: admission, validation, composing games and retries.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/composer"
	"github.com/rbwleague/matchcoordinator/pkg/config"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/metrics"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
	"github.com/rbwleague/matchcoordinator/pkg/store"
	"github.com/rbwleague/matchcoordinator/pkg/validation"
)

// Validator filters queued players down to the ones that may play and
// reports why the others were held back.
type Validator interface {
	ValidateWithReport(scope *envelope.Scope, playerIDs []string, queue models.Queue) (validation.Report, error)
	Sweep(now time.Time) int
}

// GameCounter reports how many games are still running, for admission control.
type GameCounter interface {
	ActiveGameCount() int
}

// Settings holds the orchestrator's limits, delays and timeouts.
type Settings struct {
	MaxConcurrentGames  int
	MaxRetries          int
	MaxGamesPerPass     int
	ProcessingDelay     time.Duration
	ImmediateDelay      time.Duration
	LockTimeout         time.Duration
	RetryDelay          time.Duration
	MonitorInterval     time.Duration
	ValidationTimeout   time.Duration
	ComposerTimeout     time.Duration
	InterQueueDelay     time.Duration
	QueueConfigCacheTTL time.Duration
	CacheSweepInterval  time.Duration
}

// DefaultSettings returns the settings built from package constants.
func DefaultSettings() Settings {
	return Settings{
		MaxConcurrentGames:  constants.MaxConcurrentGames,
		MaxRetries:          constants.MaxRetries,
		MaxGamesPerPass:     constants.MaxGamesPerPass,
		ProcessingDelay:     constants.ProcessingDelay,
		ImmediateDelay:      constants.ImmediateDelay,
		LockTimeout:         constants.LockTimeout,
		RetryDelay:          constants.RetryDelay,
		MonitorInterval:     constants.MonitorInterval,
		ValidationTimeout:   constants.ValidationTimeout,
		ComposerTimeout:     constants.ComposerTimeout,
		InterQueueDelay:     constants.InterQueueDelay,
		QueueConfigCacheTTL: constants.QueueConfigCacheTTL,
		CacheSweepInterval:  constants.CacheSweepInterval,
	}
}

// SettingsFromConfig overrides the defaults with the environment configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	s.MaxConcurrentGames = cfg.MaxConcurrentGames
	s.MaxRetries = cfg.MaxRetries
	s.ProcessingDelay = cfg.ProcessingDelay()
	s.LockTimeout = cfg.LockTimeout()
	s.RetryDelay = cfg.RetryDelay()
	s.MonitorInterval = cfg.MonitorInterval()
	s.ValidationTimeout = cfg.ValidationTimeout()
	s.ComposerTimeout = cfg.ComposerTimeout()
	return s
}

// Deps are the collaborators an Orchestrator drives. Validator may be nil.
type Deps struct {
	Queues     repository.QueueRepository
	Membership *store.Membership
	Validator  Validator
	Games      GameCounter
	Random     composer.Composer
	Draft      composer.Composer
	Metrics    metrics.CoordinatorMetrics
}

// Result is the outcome of one ProcessQueue call.
type Result struct {
	QueueID           string
	Success           bool
	GamesCreated      int
	GameIDs           []int
	Errors            []string
	AlreadyProcessing bool
}

type cachedQueue struct {
	queue     models.Queue
	fetchedAt time.Time
}

type Orchestrator struct {
	deps     Deps
	settings Settings

	mu         sync.Mutex
	states     map[string]*queueState
	timers     map[string]*time.Timer
	priorities priorityList
	queueCache map[string]cachedQueue
	now        func() time.Time
	closed     bool

	baseCtx context.Context
	cancel  context.CancelFunc
	monitor sync.WaitGroup
}

func New(deps Deps, settings Settings) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		deps:       deps,
		settings:   settings,
		states:     make(map[string]*queueState),
		timers:     make(map[string]*time.Timer),
		queueCache: make(map[string]cachedQueue),
		now:        time.Now,
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

func (o *Orchestrator) clock() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now()
}

// IsPlayerInAnyQueue reports the queue playerID is waiting in.
func (o *Orchestrator) IsPlayerInAnyQueue(playerID string) (string, bool) {
	return o.deps.Membership.QueueOf(playerID)
}

// capacityBuffer is the number of game slots kept free below MaxConcurrentGames.
func (o *Orchestrator) capacityBuffer() int {
	buffer := int(float64(o.settings.MaxConcurrentGames) * constants.CapacityBufferRatio)
	if buffer < constants.MinCapacityBuffer {
		buffer = constants.MinCapacityBuffer
	}
	return buffer
}

func (o *Orchestrator) composerFor(queue models.Queue) composer.Composer {
	if queue.EffectiveMode() == models.QueueModeDraft && o.deps.Draft != nil {
		return o.deps.Draft
	}
	return o.deps.Random
}

// queueConfig returns the queue, served from a short-lived cache.
func (o *Orchestrator) queueConfig(ctx context.Context, queueID string) (models.Queue, error) {
	o.mu.Lock()
	cached, ok := o.queueCache[queueID]
	now := o.now()
	o.mu.Unlock()
	if ok && now.Sub(cached.fetchedAt) < o.settings.QueueConfigCacheTTL {
		return cached.queue, nil
	}

	queue, err := o.deps.Queues.FindQueue(ctx, queueID)
	if err != nil {
		return models.Queue{}, err
	}

	o.mu.Lock()
	o.queueCache[queueID] = cachedQueue{queue: *queue, fetchedAt: now}
	o.mu.Unlock()
	return *queue, nil
}

// InvalidateQueue drops the cached configuration of queueID.
func (o *Orchestrator) InvalidateQueue(queueID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.queueCache, queueID)
}

func (o *Orchestrator) sweepCaches(now time.Time) int {
	o.mu.Lock()
	swept := 0
	for id, cached := range o.queueCache {
		if now.Sub(cached.fetchedAt) >= o.settings.QueueConfigCacheTTL {
			delete(o.queueCache, id)
			swept++
		}
	}
	o.mu.Unlock()

	if o.deps.Validator != nil {
		swept += o.deps.Validator.Sweep(now)
	}
	return swept
}

// Close stops the monitor and every pending timer. Passes already running finish on their own.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for id, t := range o.timers {
		t.Stop()
		delete(o.timers, id)
	}
	for _, st := range o.states {
		st.stopRetry()
	}
	o.mu.Unlock()

	o.cancel()
	o.monitor.Wait()
}
