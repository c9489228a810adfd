// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package validation filters a queue's waiting list down to players that can
// be put into a game right now.
package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gopkg.in/typ.v4/slices"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
	"github.com/rbwleague/matchcoordinator/pkg/metrics"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

type Rejection struct {
	PlayerID string
	Reason   string
}

type Report struct {
	Valid    []string
	Rejected []Rejection
}

// Ineligible lists rejected players that should leave the queue. Players
// excluded by a failed check are left out; they are retried next pass.
func (r Report) Ineligible() []string {
	var out []string
	for _, rej := range r.Rejected {
		if rej.Reason != constants.ReasonValidationError {
			out = append(out, rej.PlayerID)
		}
	}
	return out
}

type cacheEntry struct {
	player  *models.Player
	reason  string
	checked time.Time
}

// Validator checks players individually, then checks every party once per pass.
type Validator struct {
	players repository.PlayerRepository
	parties repository.PartyRepository
	server  gameserver.Channel
	metrics metrics.CoordinatorMetrics

	onlineTimeout time.Duration
	cacheTTL      time.Duration
	now           func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewValidator(players repository.PlayerRepository, parties repository.PartyRepository, server gameserver.Channel, m metrics.CoordinatorMetrics) *Validator {
	return &Validator{
		players:       players,
		parties:       parties,
		server:        server,
		metrics:       m,
		onlineTimeout: constants.OnlineCheckTimeout,
		cacheTTL:      constants.ValidationCacheTTL,
		now:           time.Now,
		cache:         make(map[string]cacheEntry),
	}
}

func cacheKey(queueID, playerID string) string {
	return queueID + ":" + playerID
}

// Validate returns the valid subset of playerIDs in their original order.
func (v *Validator) Validate(scope *envelope.Scope, playerIDs []string, queue models.Queue) ([]string, error) {
	report, err := v.ValidateWithReport(scope, playerIDs, queue)
	if err != nil {
		return nil, err
	}
	return report.Valid, nil
}

func (v *Validator) ValidateWithReport(scope *envelope.Scope, playerIDs []string, queue models.Queue) (Report, error) {
	ids := unique(playerIDs)
	individual, err := v.checkPlayers(scope, ids, queue)
	if err != nil {
		return Report{}, err
	}
	if err := scope.Ctx.Err(); err != nil {
		return Report{}, err
	}

	reasons := make(map[string]string, len(ids))
	for id, entry := range individual {
		if entry.reason != "" {
			reasons[id] = entry.reason
		}
	}
	v.checkParties(scope, ids, individual, reasons, queue)
	if err := scope.Ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{
		Valid: slices.Filter(ids, func(id string) bool { return reasons[id] == "" }),
	}
	for _, id := range ids {
		if reason := reasons[id]; reason != "" {
			report.Rejected = append(report.Rejected, Rejection{PlayerID: id, Reason: reason})
			v.metrics.AddValidationRejection(queue.ID, reason)
		}
	}
	if len(report.Rejected) > 0 {
		scope.Log.Debugf("[validation] queue %s: %d valid, %d rejected", queue.ID, len(report.Valid), len(report.Rejected))
	}
	return report, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// checkPlayers runs the per-player checks, serving fresh results from the cache.
// A failed bulk load fails the whole pass.
func (v *Validator) checkPlayers(scope *envelope.Scope, ids []string, queue models.Queue) (map[string]cacheEntry, error) {
	results := make(map[string]cacheEntry, len(ids))
	now := v.now()

	var pending []string
	v.mu.Lock()
	for _, id := range ids {
		if entry, ok := v.cache[cacheKey(queue.ID, id)]; ok && now.Sub(entry.checked) < v.cacheTTL {
			results[id] = entry
			continue
		}
		pending = append(pending, id)
	}
	v.mu.Unlock()
	if len(pending) == 0 {
		return results, nil
	}

	loaded, err := v.players.FindPlayers(scope.Ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("load %d players for queue %s: %w", len(pending), queue.ID, err)
	}
	byID := make(map[string]*models.Player, len(loaded))
	for _, p := range loaded {
		byID[p.ID] = p
	}

	summary := asyncutil.SettleAll(scope.Ctx, constants.PlayerFanOutLimit, pending, func(ctx context.Context, id string) (cacheEntry, error) {
		return v.checkPlayer(ctx, byID[id], queue), nil
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range summary.Results {
		id := pending[r.Index]
		entry := r.Value
		if r.Err != nil {
			// cancelled or panicked: exclude this pass, do not cache
			results[id] = cacheEntry{reason: constants.ReasonValidationError, checked: now}
			continue
		}
		entry.checked = now
		results[id] = entry
		if entry.reason != constants.ReasonValidationError {
			v.cache[cacheKey(queue.ID, id)] = entry
		}
	}
	return results, nil
}

func (v *Validator) checkPlayer(ctx context.Context, p *models.Player, queue models.Queue) cacheEntry {
	switch {
	case p == nil:
		return cacheEntry{reason: constants.ReasonPlayerNotFound}
	case p.IGN == "":
		return cacheEntry{player: p, reason: constants.ReasonMissingIGN}
	case p.Restricted():
		return cacheEntry{player: p, reason: constants.ReasonRestricted}
	case !queue.AcceptsRating(p.Rating):
		return cacheEntry{player: p, reason: constants.ReasonRatingOutOfRange}
	}

	online, err := asyncutil.WithTimeout(ctx, v.onlineTimeout, func(ctx context.Context) (bool, error) {
		return v.server.CheckPlayerOnline(ctx, p.IGN)
	})
	if err != nil || !online {
		return cacheEntry{player: p, reason: constants.ReasonOffline}
	}
	return cacheEntry{player: p}
}

var errPartyInvalid = errors.New("party invalid")

// checkParties validates each party once. A failing party rejects every member.
func (v *Validator) checkParties(scope *envelope.Scope, ids []string, individual map[string]cacheEntry, reasons map[string]string, queue models.Queue) {
	candidates := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		candidates[id] = struct{}{}
	}

	checked := make(map[string]struct{})
	for _, id := range ids {
		if scope.Ctx.Err() != nil {
			return
		}
		entry := individual[id]
		if entry.player == nil || entry.player.PartyID == "" {
			continue
		}
		partyID := entry.player.PartyID
		if _, done := checked[partyID]; done {
			continue
		}
		checked[partyID] = struct{}{}

		party, err := v.checkParty(scope.Ctx, partyID, id, candidates, individual, queue)
		if err == nil {
			continue
		}
		scope.Log.Debugf("[validation] party %s rejected: %v", partyID, err)
		reasons[id] = constants.ReasonPartyInvalid
		if party == nil {
			continue
		}
		for _, member := range party.Members {
			if _, ok := candidates[member]; ok {
				reasons[member] = constants.ReasonPartyInvalid
			}
		}
	}
}

func (v *Validator) checkParty(ctx context.Context, partyID, playerID string, candidates map[string]struct{}, individual map[string]cacheEntry, queue models.Queue) (*models.Party, error) {
	party, err := v.parties.FindParty(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errPartyInvalid, err)
	}
	if len(party.Members) == 0 {
		return party, fmt.Errorf("%w: no members", errPartyInvalid)
	}
	if !party.Has(playerID) {
		return party, fmt.Errorf("%w: %s is not a member", errPartyInvalid, playerID)
	}
	for _, member := range party.Members {
		if _, ok := candidates[member]; !ok {
			return party, fmt.Errorf("%w: member %s is not queued", errPartyInvalid, member)
		}
		if reason := individual[member].reason; reason != "" {
			return party, fmt.Errorf("%w: member %s failed %s", errPartyInvalid, member, reason)
		}
	}
	if len(party.Members) > queue.TeamSize() {
		return party, fmt.Errorf("%w: %d members exceed team size %d", errPartyInvalid, len(party.Members), queue.TeamSize())
	}
	return party, nil
}

// Sweep drops cache entries older than the TTL and returns how many were removed.
func (v *Validator) Sweep(now time.Time) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	removed := 0
	for key, entry := range v.cache {
		if now.Sub(entry.checked) >= v.cacheTTL {
			delete(v.cache, key)
			removed++
		}
	}
	return removed
}

func (v *Validator) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache = make(map[string]cacheEntry)
}
