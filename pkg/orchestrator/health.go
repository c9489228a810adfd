// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package orchestrator

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/rbwleague/matchcoordinator/pkg/constants"
)

type Health struct {
	QueueID         string   `json:"queueId"`
	IsHealthy       bool     `json:"isHealthy"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// QueueHealth is a read-only diagnosis of queueID. Unknown queues are healthy.
func (o *Orchestrator) QueueHealth(queueID string) Health {
	o.mu.Lock()
	defer o.mu.Unlock()

	h := Health{QueueID: queueID, IsHealthy: true, Issues: []string{}, Recommendations: []string{}}
	st, ok := o.states[queueID]
	if !ok {
		return h
	}
	issue := func(problem, advice string) {
		h.IsHealthy = false
		h.Issues = append(h.Issues, problem)
		h.Recommendations = append(h.Recommendations, advice)
	}

	if rate := st.errorRate(); rate > constants.HighErrorRateThreshold {
		issue(fmt.Sprintf("High error rate: %.1f%%", rate*100), "Check player validation and game creation")
	}
	if st.avgProcessTime > constants.SlowProcessingThreshold {
		issue(fmt.Sprintf("Slow processing: %s average", st.avgProcessTime.Round(time.Millisecond)), "Reduce queue size or check the data store")
	}
	if st.exhausted {
		issue("Maximum retries reached", "Reset the queue health and check the composer logs")
	}
	if st.processing && o.now().Sub(st.startedAt) > o.settings.LockTimeout {
		issue("Queue appears stuck in processing", "Reset the queue health")
	}
	return h
}

// ResetQueueHealth clears the stuck flag, retries and error counters of
// queueID. It returns false for a queue never processed.
func (o *Orchestrator) ResetQueueHealth(queueID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[queueID]
	if !ok {
		return false
	}
	if st.processing {
		st.processing = false
		st.generation++
	}
	st.stopRetry()
	st.retryCount = 0
	st.exhausted = false
	st.penalty = 0
	st.lastErrors = nil
	st.errors = 0
	st.processed = max(1, st.processed)
	st.succeeded = max(1, st.succeeded)
	return true
}

type QueueStats struct {
	Processing        bool          `json:"processing"`
	RetryCount        int           `json:"retryCount"`
	RetriesExhausted  bool          `json:"retriesExhausted"`
	Priority          int           `json:"priority"`
	Waiting           int           `json:"waiting"`
	Processed         int           `json:"processed"`
	Succeeded         int           `json:"succeeded"`
	Errors            int           `json:"errors"`
	GamesCreated      int           `json:"gamesCreated"`
	AvgProcessingTime time.Duration `json:"avgProcessingTime"`
	LastProcessedAt   time.Time     `json:"lastProcessedAt"`
	LastErrors        []string      `json:"lastErrors,omitempty"`
}

type Stats struct {
	ActiveGames       int                   `json:"activeGames"`
	ProcessingQueues  int                   `json:"processingQueues"`
	QueuedPlayers     int                   `json:"queuedPlayers"`
	Queues            map[string]QueueStats `json:"queues"`
	PriorityList      []PriorityEntry       `json:"priorityList"`
	PendingRuns       int                   `json:"pendingRuns"`
	TotalProcessed    int                   `json:"totalProcessed"`
	SuccessRate       float64               `json:"successRate"`
	ErrorRate         float64               `json:"errorRate"`
	AvgProcessingTime time.Duration         `json:"avgProcessingTime"`
}

// Stats reports system-wide statistics. Rates are fractions of all processed passes.
func (o *Orchestrator) Stats() Stats {
	stats := Stats{
		ActiveGames: o.deps.Games.ActiveGameCount(),
		Queues:      make(map[string]QueueStats),
	}

	waiting := make(map[string]int)
	for _, id := range o.deps.Membership.QueueIDs() {
		n := o.deps.Membership.Count(id)
		waiting[id] = n
		stats.QueuedPlayers += n
	}

	o.mu.Lock()
	ids := make([]string, 0, len(o.states))
	for id := range o.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var succeeded, failed int
	var times, weights []float64
	for _, id := range ids {
		st := o.states[id]
		if st.processing {
			stats.ProcessingQueues++
		}
		stats.TotalProcessed += st.processed
		succeeded += st.succeeded
		failed += st.errors
		if st.processed > 0 {
			times = append(times, float64(st.avgProcessTime))
			weights = append(weights, float64(st.processed))
		}
		stats.Queues[id] = QueueStats{
			Processing:        st.processing,
			RetryCount:        st.retryCount,
			RetriesExhausted:  st.exhausted,
			Priority:          st.priority,
			Waiting:           waiting[id],
			Processed:         st.processed,
			Succeeded:         st.succeeded,
			Errors:            st.errors,
			GamesCreated:      st.gamesCreated,
			AvgProcessingTime: st.avgProcessTime,
			LastProcessedAt:   st.lastProcessedAt,
			LastErrors:        append([]string(nil), st.lastErrors...),
		}
	}
	for id, n := range waiting {
		if _, ok := stats.Queues[id]; !ok {
			stats.Queues[id] = QueueStats{Waiting: n}
		}
	}
	stats.PriorityList = o.priorities.snapshot()
	stats.PendingRuns = len(o.timers)
	o.mu.Unlock()

	if total := succeeded + failed; total > 0 {
		stats.SuccessRate = float64(succeeded) / float64(total)
		stats.ErrorRate = float64(failed) / float64(total)
	}
	if len(times) > 0 {
		stats.AvgProcessingTime = time.Duration(stat.Mean(times, weights))
	}
	return stats
}
