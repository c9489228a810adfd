// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type CoordinatorMetrics interface {
	SetActiveGames(count int)
	SetQueueSize(queueID string, size int)
	AddQueueProcessingElapsedTimeMs(queueID, outcome string, elapsedTime time.Duration)
	AddGamesCreated(queueID, mode string, count int)
	AddQueueRetry(queueID string)
	AddValidationRejection(queueID, reason string)
	AddDraftOutcome(outcome string)
	AddGameTransition(state string)
	AddWarpFailure(reason string)
}

func NewMetrics(registry *prometheus.Registry) CoordinatorMetrics {
	return setupPrometheusMetrics(registry)
}
