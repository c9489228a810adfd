// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	activeGames          prometheus.Gauge
	queueSize            prometheus.GaugeVec
	queueProcessingTime  prometheus.HistogramVec
	gamesCreated         prometheus.CounterVec
	queueRetries         prometheus.CounterVec
	validationRejections prometheus.CounterVec
	draftOutcomes        prometheus.CounterVec
	gameStateTransitions prometheus.CounterVec
	warpFailures         prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	activeGames := factory.NewGauge(prometheus.GaugeOpts{
		Name: "rbw_mm_active_games",
		Help: "Number of games that are created and not yet scored or voided",
	})
	queueSize := factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rbw_mm_queue_size",
		Help: "Number of players currently waiting in a queue",
	}, []string{"queue"})
	//nolint:promlinter
	queueProcessingTime := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rbw_mm_queue_processing_elapsed_time_ms",
		Help:    "A histogram of queue processing elapsed time in milliseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 16),
	}, []string{"queue", "outcome"})
	gamesCreated := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rbw_mm_games_created_total",
		Help: "Number of games created per queue and composer",
	}, []string{"queue", "mode"})
	queueRetries := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rbw_mm_queue_retries_total",
		Help: "Number of scheduled queue processing retries",
	}, []string{"queue"})
	validationRejections := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rbw_mm_validation_rejections_total",
		Help: "Players excluded by the validation stage",
	}, []string{"queue", "reason"})
	draftOutcomes := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rbw_mm_draft_outcomes_total",
		Help: "Team verification outcomes of captain drafts",
	}, []string{"outcome"})
	gameStateTransitions := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rbw_mm_game_transitions_total",
		Help: "Game lifecycle transitions",
	}, []string{"state"})
	warpFailures := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rbw_mm_warp_failures_total",
		Help: "Warp failures reported by the game server",
	}, []string{"reason"})

	return prometheusMetrics{
		activeGames:          activeGames,
		queueSize:            *queueSize,
		queueProcessingTime:  *queueProcessingTime,
		gamesCreated:         *gamesCreated,
		queueRetries:         *queueRetries,
		validationRejections: *validationRejections,
		draftOutcomes:        *draftOutcomes,
		gameStateTransitions: *gameStateTransitions,
		warpFailures:         *warpFailures,
	}
}

func (metrics prometheusMetrics) SetActiveGames(count int) {
	metrics.activeGames.Set(float64(count))
}

func (metrics prometheusMetrics) SetQueueSize(queueID string, size int) {
	metrics.queueSize.With(prometheus.Labels{"queue": queueID}).Set(float64(size))
}

func (metrics prometheusMetrics) AddQueueProcessingElapsedTimeMs(queueID, outcome string, elapsedTime time.Duration) {
	metrics.queueProcessingTime.With(prometheus.Labels{"queue": queueID, "outcome": outcome}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddGamesCreated(queueID, mode string, count int) {
	metrics.gamesCreated.With(prometheus.Labels{"queue": queueID, "mode": mode}).Add(float64(count))
}

func (metrics prometheusMetrics) AddQueueRetry(queueID string) {
	metrics.queueRetries.With(prometheus.Labels{"queue": queueID}).Inc()
}

func (metrics prometheusMetrics) AddValidationRejection(queueID, reason string) {
	metrics.validationRejections.With(prometheus.Labels{"queue": queueID, "reason": reason}).Inc()
}

func (metrics prometheusMetrics) AddDraftOutcome(outcome string) {
	metrics.draftOutcomes.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (metrics prometheusMetrics) AddGameTransition(state string) {
	metrics.gameStateTransitions.With(prometheus.Labels{"state": state}).Inc()
}

func (metrics prometheusMetrics) AddWarpFailure(reason string) {
	metrics.warpFailures.With(prometheus.Labels{"reason": reason}).Inc()
}
