// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package maps

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/elliotchance/pie/v2"

	"github.com/rbwleague/matchcoordinator/pkg/common"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// Provider returns the reserved pool and the full catalogue.
type Provider interface {
	Maps(ctx context.Context) (reserved []models.MapInfo, all []models.MapInfo, err error)
}

// Catalogue keeps the latest maps_info report from the game server.
type Catalogue struct {
	mu        sync.RWMutex
	reserved  []models.MapInfo
	all       []models.MapInfo
	updatedAt time.Time
}

func NewCatalogue() *Catalogue {
	return &Catalogue{}
}

func (c *Catalogue) UpdateMaps(reserved []models.MapInfo, all []models.MapInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reserved = append([]models.MapInfo(nil), reserved...)
	c.all = append([]models.MapInfo(nil), all...)
	c.updatedAt = time.Now()
}

func (c *Catalogue) Maps(_ context.Context) ([]models.MapInfo, []models.MapInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.MapInfo(nil), c.reserved...), append([]models.MapInfo(nil), c.all...), nil
}

func (c *Catalogue) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

type snapshot struct {
	reserved  []models.MapInfo
	all       []models.MapInfo
	fetchedAt time.Time
}

// Selector picks a map for a new game.
type Selector struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache *snapshot
	rng   *rand.Rand
}

func NewSelector(provider Provider) *Selector {
	return &Selector{
		provider: provider,
		ttl:      constants.MapCacheTTL,
		now:      time.Now,
		rng:      common.NewRand(),
	}
}

func (s *Selector) load(scope *envelope.Scope) snapshot {
	s.mu.Lock()
	if s.cache != nil && s.now().Sub(s.cache.fetchedAt) < s.ttl {
		c := *s.cache
		s.mu.Unlock()
		return c
	}
	s.mu.Unlock()

	reserved, all, err := s.provider.Maps(scope.Ctx)
	if err != nil {
		scope.Log.WithError(err).Warn("[maps] could not load the map catalogue")
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.cache != nil {
			return *s.cache
		}
		return snapshot{}
	}

	fresh := snapshot{reserved: reserved, all: all, fetchedAt: s.now()}
	s.mu.Lock()
	s.cache = &fresh
	s.mu.Unlock()
	return fresh
}

// Invalidate drops the cached catalogue.
func (s *Selector) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

func (s *Selector) pick(candidates []models.MapInfo) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rng.Intn(len(candidates))].Name
}

// Select prefers a reserved map built for capacity players, then an unlocked
// map of that size, then any unlocked map, then the default map.
func (s *Selector) Select(scope *envelope.Scope, capacity int) string {
	snap := s.load(scope)

	fits := func(m models.MapInfo) bool { return m.MaxPlayers == capacity }
	unlocked := pie.Filter(snap.all, func(m models.MapInfo) bool { return !m.Locked })

	if candidates := pie.Filter(snap.reserved, fits); len(candidates) > 0 {
		return s.pick(candidates)
	}
	scope.Log.Debugf("[maps] no reserved map for %d players", capacity)
	if candidates := pie.Filter(unlocked, fits); len(candidates) > 0 {
		return s.pick(candidates)
	}
	if len(unlocked) > 0 {
		return s.pick(unlocked)
	}
	return constants.DefaultMapName
}

// ByName finds a map in the catalogue, ignoring case.
func (s *Selector) ByName(scope *envelope.Scope, name string) (models.MapInfo, bool) {
	snap := s.load(scope)
	for _, m := range snap.all {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return models.MapInfo{}, false
}
