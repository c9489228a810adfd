// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package store holds the process-local queue membership table. It is not
// persisted: a restart starts every queue empty.
package store

import (
	"sort"
	"sync"
)

// Membership maps queue ids to the ordered list of waiting player ids.
// Lists are append/remove only and never exceed maxSize entries.
type Membership struct {
	mu      sync.RWMutex
	lists   map[string][]string
	maxSize int
}

func NewMembership(maxSize int) *Membership {
	return &Membership{
		lists:   make(map[string][]string),
		maxSize: maxSize,
	}
}

// Join appends playerID to the queue. It returns false when the player is
// already waiting there or the queue is at its hard cap.
func (m *Membership) Join(queueID, playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[queueID]
	if m.maxSize > 0 && len(list) >= m.maxSize {
		return false
	}
	for _, id := range list {
		if id == playerID {
			return false
		}
	}
	m.lists[queueID] = append(list, playerID)
	return true
}

func (m *Membership) Leave(queueID, playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[queueID]
	for i, id := range list {
		if id == playerID {
			m.lists[queueID] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Members returns a copy of the waiting list in join order.
func (m *Membership) Members(queueID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.lists[queueID]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func (m *Membership) Count(queueID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lists[queueID])
}

// Remove drops the given players from the queue, keeping everyone else
// (including players that joined after a snapshot was taken) in order.
func (m *Membership) Remove(queueID string, playerIDs []string) int {
	if len(playerIDs) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		drop[id] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[queueID]
	kept := make([]string, 0, len(list))
	for _, id := range list {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	m.lists[queueID] = kept
	return len(list) - len(kept)
}

// Truncate enforces the hard cap. The oldest entries are kept; the newest
// overflow is dropped. It returns the number of dropped entries.
func (m *Membership) Truncate(queueID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[queueID]
	if m.maxSize <= 0 || len(list) <= m.maxSize {
		return 0
	}
	m.lists[queueID] = list[:m.maxSize:m.maxSize]
	return len(list) - m.maxSize
}

// QueueOf returns the queue the player is waiting in.
func (m *Membership) QueueOf(playerID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for queueID, list := range m.lists {
		for _, id := range list {
			if id == playerID {
				return queueID, true
			}
		}
	}
	return "", false
}

// QueueIDs lists queues that have at least one waiting player.
func (m *Membership) QueueIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.lists))
	for id, list := range m.lists {
		if len(list) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (m *Membership) Clear(queueID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, queueID)
}

// Overwrite replaces the waiting list without applying the cap, so Truncate has something to trim.
// Admin tooling and tests only.
func (m *Membership) Overwrite(queueID string, playerIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]string, len(playerIDs))
	copy(list, playerIDs)
	m.lists[queueID] = list
}
