// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package orchestrator

import (
	"math"
	"sort"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/constants"
)

type PriorityEntry struct {
	QueueID    string
	Priority   int
	EnqueuedAt time.Time
}

// priorityList is ordered by priority (highest first), then by enqueue time.
// A queue appears at most once.
type priorityList struct {
	entries []PriorityEntry
}

func (l *priorityList) add(entry PriorityEntry) {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.QueueID != entry.QueueID {
			kept = append(kept, e)
		}
	}
	l.entries = append(kept, entry)

	sort.SliceStable(l.entries, func(i, j int) bool {
		if l.entries[i].Priority != l.entries[j].Priority {
			return l.entries[i].Priority > l.entries[j].Priority
		}
		return l.entries[i].EnqueuedAt.Before(l.entries[j].EnqueuedAt)
	})
	if len(l.entries) > constants.PriorityListCap {
		l.entries = l.entries[:constants.PriorityListCap]
	}
}

func (l *priorityList) pop() (PriorityEntry, bool) {
	if len(l.entries) == 0 {
		return PriorityEntry{}, false
	}
	head := l.entries[0]
	l.entries = l.entries[1:]
	return head, true
}

func (l *priorityList) snapshot() []PriorityEntry {
	return append([]PriorityEntry(nil), l.entries...)
}

// QueuePriority scores a queue by how full it is (up to 10) plus the minutes
// since it was last processed (up to 5). A queue never processed gets the
// full wait bonus.
func QueuePriority(count, capacity int, lastProcessedAt, now time.Time) int {
	if capacity <= 0 {
		return 0
	}
	fill := math.Min(float64(count)/float64(capacity), 1)
	wait := 5.0
	if !lastProcessedAt.IsZero() {
		wait = math.Min(now.Sub(lastProcessedAt).Minutes(), 5)
		if wait < 0 {
			wait = 0
		}
	}
	return int(math.Floor(fill*10 + wait))
}

func (o *Orchestrator) enqueuePriority(queueID string, priority int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.priorities.add(PriorityEntry{QueueID: queueID, Priority: priority, EnqueuedAt: o.now()})
}

// ProcessPriorityQueue takes the highest priority queue off the list and
// schedules it immediately.
func (o *Orchestrator) ProcessPriorityQueue() (string, bool) {
	o.mu.Lock()
	head, ok := o.priorities.pop()
	o.mu.Unlock()
	if !ok {
		return "", false
	}
	o.ScheduleQueueProcessing(head.QueueID, true)
	return head.QueueID, true
}
