// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"context"
	"fmt"

	"github.com/elliotchance/pie/v2"

	"github.com/rbwleague/matchcoordinator/pkg/balance"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

type candidate struct {
	id      string
	ign     string
	rating  int
	partyID string
}

func (c candidate) label() string {
	if c.ign == "" {
		return c.id
	}
	return fmt.Sprintf("%s (%d)", c.ign, c.rating)
}

func ids(cands []candidate) []string {
	return pie.Map(cands, func(c candidate) string { return c.id })
}

// loadCandidates keeps the input order. Players missing from the repository
// still take part as unrated solo players.
func loadCandidates(ctx context.Context, players repository.PlayerRepository, playerIDs []string) ([]candidate, error) {
	loaded, err := players.FindPlayers(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	out := make([]candidate, 0, len(playerIDs))
	byID := make(map[string]candidate, len(loaded))
	for _, p := range loaded {
		byID[p.ID] = candidate{id: p.ID, ign: p.IGN, rating: p.Rating, partyID: p.PartyID}
	}
	seen := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := byID[id]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, candidate{id: id})
	}
	return out, nil
}

// groupUnits bundles party members that are all present into one unit,
// ordered by the first appearance of any member.
func groupUnits(cands []candidate, maxUnit int) [][]candidate {
	index := make(map[string]int)
	var units [][]candidate
	for _, c := range cands {
		if c.partyID == "" {
			units = append(units, []candidate{c})
			continue
		}
		if i, ok := index[c.partyID]; ok {
			units[i] = append(units[i], c)
			continue
		}
		index[c.partyID] = len(units)
		units = append(units, []candidate{c})
	}

	// a party that cannot fit one team plays as solos
	var out [][]candidate
	for _, u := range units {
		if len(u) > maxUnit {
			for _, c := range u {
				out = append(out, []candidate{c})
			}
			continue
		}
		out = append(out, u)
	}
	return out
}

// selectGroup takes the first capacity players from cands without splitting
// a party, skipping parties that no longer fit.
func selectGroup(cands []candidate, capacity int) ([]candidate, bool) {
	if len(cands) < capacity {
		return nil, false
	}
	var group []candidate
	for _, unit := range groupUnits(cands, teamCap(capacity)) {
		if len(group)+len(unit) > capacity {
			continue
		}
		group = append(group, unit...)
		if len(group) == capacity {
			return group, true
		}
	}
	return nil, false
}

func teamCap(capacity int) int {
	return (capacity + 1) / 2
}

func without(cands []candidate, taken []candidate) []candidate {
	drop := make(map[string]struct{}, len(taken))
	for _, c := range taken {
		drop[c.id] = struct{}{}
	}
	return pie.Filter(cands, func(c candidate) bool {
		_, gone := drop[c.id]
		return !gone
	})
}

// partiesIn lists groups of two or more candidates that share a party.
func partiesIn(group []candidate) [][]string {
	var parties [][]string
	for _, unit := range groupUnits(group, len(group)) {
		if len(unit) > 1 {
			parties = append(parties, ids(unit))
		}
	}
	return parties
}

func toUnits(units [][]candidate) []balance.Unit {
	out := make([]balance.Unit, len(units))
	for i, members := range units {
		for _, c := range members {
			out[i].Members = append(out[i].Members, c.id)
			out[i].Ratings = append(out[i].Ratings, float64(c.rating))
		}
	}
	return out
}
