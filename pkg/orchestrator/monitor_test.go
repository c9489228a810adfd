// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/testsetup"
)

func TestQueuePriority(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		count    int
		capacity int
		last     time.Time
		want     int
	}{
		{"never processed, empty", 0, 8, time.Time{}, 5},
		{"never processed, full", 8, 8, time.Time{}, 15},
		{"full, just processed", 8, 8, now, 10},
		{"overfull counts as full", 20, 8, now, 10},
		{"half full, one minute", 4, 8, now.Add(-time.Minute), 6},
		{"half full, long wait is capped", 4, 8, now.Add(-time.Hour), 10},
		{"fractions round down", 3, 8, now.Add(-90 * time.Second), 5},
		{"no capacity", 3, 0, now, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QueuePriority(tt.count, tt.capacity, tt.last, now))
		})
	}
}

func TestPriorityList_Ordering(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var l priorityList
	for i, e := range []struct {
		id       string
		priority int
	}{{"A", 5}, {"B", 8}, {"C", 8}, {"D", 3}} {
		l.add(PriorityEntry{QueueID: e.id, Priority: e.priority, EnqueuedAt: base.Add(time.Duration(i) * time.Second)})
	}

	var order []string
	for {
		head, ok := l.pop()
		if !ok {
			break
		}
		order = append(order, head.QueueID)
	}
	assert.Equal(t, []string{"B", "C", "A", "D"}, order)
}

func TestPriorityList_DeduplicatesAndCaps(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var l priorityList
	l.add(PriorityEntry{QueueID: "A", Priority: 3, EnqueuedAt: base})
	l.add(PriorityEntry{QueueID: "A", Priority: 12, EnqueuedAt: base.Add(time.Second)})
	require.Len(t, l.snapshot(), 1)
	assert.Equal(t, 12, l.snapshot()[0].Priority)

	for i := 0; i < constants.PriorityListCap+20; i++ {
		l.add(PriorityEntry{QueueID: fmt.Sprintf("q%d", i), Priority: i % 15, EnqueuedAt: base})
	}
	entries := l.snapshot()
	assert.Len(t, entries, constants.PriorityListCap)
	assert.Equal(t, 14, entries[0].Priority)
}

func TestMonitorQueues_FastTracksFullQueues(t *testing.T) {
	f := newFixture(t, randomQueue("full", 4), randomQueue("short", 4))
	f.fill("full", 4)
	f.fill("short", 2)
	o := f.build(t)
	scope := testsetup.NewTestScope()

	o.MonitorQueues(scope)

	stats := o.Stats()
	require.Len(t, stats.PriorityList, 1)
	assert.Equal(t, "full", stats.PriorityList[0].QueueID)
	assert.Equal(t, 15, stats.PriorityList[0].Priority)
	assert.Zero(t, o.PendingRuns())

	queueID, ok := o.ProcessPriorityQueue()
	assert.True(t, ok)
	assert.Equal(t, "full", queueID)
	assert.Equal(t, 1, o.PendingRuns())

	_, ok = o.ProcessPriorityQueue()
	assert.False(t, ok)
}

func TestMonitorQueues_SchedulesBelowThreshold(t *testing.T) {
	f := newFixture(t, randomQueue("q", 4))
	f.fill("q", 4)
	o := f.build(t)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }
	o.mu.Lock()
	o.stateLocked("q").lastProcessedAt = now
	o.stateLocked("q").penalty = constants.PriorityPenalty
	o.mu.Unlock()

	o.MonitorQueues(testsetup.NewTestScope())

	assert.Empty(t, o.Stats().PriorityList)
	assert.Equal(t, 5, o.Stats().Queues["q"].Priority)
	assert.Equal(t, 1, o.PendingRuns())
}

func TestMonitorQueues_TruncatesOversizedQueue(t *testing.T) {
	f := newFixture(t, randomQueue("q", 4))
	o := f.build(t)

	ids := make([]string, 130)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}
	f.membership.Overwrite("q", ids)

	o.MonitorQueues(testsetup.NewTestScope())

	members := f.membership.Members("q")
	assert.Len(t, members, 100)
	assert.Equal(t, ids[:100], members)
	// the truncating tick does not schedule
	assert.Empty(t, o.Stats().PriorityList)
}

func TestMonitorQueues_ResetsStuckQueue(t *testing.T) {
	f := newFixture(t, randomQueue("q", 4))
	o := f.build(t)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }
	generation, _, ok := o.begin("q")
	require.True(t, ok)

	assert.True(t, o.ProcessQueue(testsetup.NewTestScope(), "q").AlreadyProcessing)

	now = now.Add(constants.LockTimeout + time.Second)
	health := o.QueueHealth("q")
	assert.False(t, health.IsHealthy)
	assert.Contains(t, health.Issues, "Queue appears stuck in processing")

	o.MonitorQueues(testsetup.NewTestScope())

	o.mu.Lock()
	st := o.states["q"]
	assert.False(t, st.processing)
	assert.Equal(t, 1, st.errors)
	assert.NotEqual(t, generation, st.generation)
	o.mu.Unlock()

	// the stale pass finishing late leaves the new state alone
	o.finish(testsetup.NewTestScope(), "q", generation, pass{result: Result{Success: true}}, time.Second)
	assert.Zero(t, o.Stats().Queues["q"].Processed)
}

func TestMonitorQueues_DecaysIdleMetricsOnce(t *testing.T) {
	f := newFixture(t, randomQueue("q", 4))
	o := f.build(t)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }
	o.mu.Lock()
	st := o.stateLocked("q")
	st.processed, st.succeeded, st.errors = 10, 5, 5
	st.lastProcessedAt = now.Add(-constants.IdleDecayAfter - time.Minute)
	o.mu.Unlock()

	o.MonitorQueues(testsetup.NewTestScope())
	o.MonitorQueues(testsetup.NewTestScope())

	stats := o.Stats().Queues["q"]
	assert.Equal(t, 8, stats.Processed)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Equal(t, 4, stats.Errors)
}

func TestQueueHealth(t *testing.T) {
	f := newFixture(t, randomQueue("q", 4))
	o := f.build(t)
	scope := testsetup.NewTestScope()

	assert.True(t, o.QueueHealth("never-seen").IsHealthy)
	assert.False(t, o.ResetQueueHealth("never-seen"))

	o.ProcessQueue(scope, "q")
	assert.True(t, o.QueueHealth("q").IsHealthy)

	o.ProcessQueue(scope, "gone")
	health := o.QueueHealth("gone")
	assert.False(t, health.IsHealthy)
	assert.Equal(t, []string{"High error rate: 100.0%"}, health.Issues)
	assert.Len(t, health.Recommendations, 1)

	o.mu.Lock()
	o.stateLocked("q").avgProcessTime = constants.SlowProcessingThreshold + time.Second
	o.mu.Unlock()
	assert.Contains(t, o.QueueHealth("q").Issues, "Slow processing: 11s average")

	assert.True(t, o.ResetQueueHealth("gone"))
	assert.True(t, o.QueueHealth("gone").IsHealthy)
	stats := o.Stats().Queues["gone"]
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Zero(t, stats.Errors)
}

func TestStats(t *testing.T) {
	f := newFixture(t, randomQueue("a", 2), randomQueue("b", 4))
	f.fill("a", 3)
	f.fill("b", 2)
	f.games.active.Store(7)
	o := f.build(t)
	scope := testsetup.NewTestScope()

	o.ProcessQueue(scope, "a")
	o.ProcessQueue(scope, "missing")

	stats := o.Stats()
	assert.Equal(t, 7, stats.ActiveGames)
	assert.Equal(t, 3, stats.QueuedPlayers)
	assert.Equal(t, 2, stats.TotalProcessed)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 0.5, stats.ErrorRate, 1e-9)
	assert.Equal(t, 1, stats.Queues["a"].GamesCreated)
	assert.Equal(t, 1, stats.Queues["a"].Waiting)
	assert.Equal(t, 2, stats.Queues["b"].Waiting)
	assert.Zero(t, stats.ProcessingQueues)
}

func TestStartAndClose(t *testing.T) {
	g := testsetup.WithGomega(t)

	f := newFixture(t, randomQueue("q", 2))
	f.fill("q", 4)
	f.settings.MonitorInterval = 5 * time.Millisecond
	f.settings.ImmediateDelay = time.Millisecond
	f.settings.ProcessingDelay = time.Millisecond
	o := f.build(t)

	o.Start(context.Background())
	g.Eventually(func() int { return f.membership.Count("q") }).Should(gomega.Equal(0))

	o.Close()
	f.fill("q", 2)
	g.Consistently(func() int { return f.membership.Count("q") }, 50*time.Millisecond, 10*time.Millisecond).Should(gomega.Equal(2))
}
