// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"math/rand"
	"sort"
)

type partyGroup struct {
	ID      string
	Members []string
}

func (p partyGroup) has(playerID string) bool {
	for _, m := range p.Members {
		if m == playerID {
			return true
		}
	}
	return false
}

// selectCaptains picks two captains based on how many parties are in the game:
//
//	0 parties:  highest and lowest rated player
//	1 party:    the party's first member and the first solo player (or the party's second member)
//	2 parties:  the first member of each party
//	3+ parties: the first member of two random parties
func selectCaptains(cands []candidate, parties []partyGroup, rng *rand.Rand) ([2]string, error) {
	if len(cands) < 2 {
		return [2]string{}, ErrNoCaptains
	}

	switch {
	case len(parties) == 0:
		sorted := make([]candidate, len(cands))
		copy(sorted, cands)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].rating > sorted[j].rating })
		return [2]string{sorted[0].id, sorted[len(sorted)-1].id}, nil

	case len(parties) == 1:
		party := parties[0]
		for _, c := range cands {
			if !party.has(c.id) {
				return [2]string{party.Members[0], c.id}, nil
			}
		}
		if len(party.Members) < 2 {
			return [2]string{}, ErrNoCaptains
		}
		return [2]string{party.Members[0], party.Members[1]}, nil

	case len(parties) == 2:
		return [2]string{parties[0].Members[0], parties[1].Members[0]}, nil

	default:
		order := rng.Perm(len(parties))
		return [2]string{parties[order[0]].Members[0], parties[order[1]].Members[0]}, nil
	}
}

// captainParties returns, for each captain, the party they lead, if any.
func captainParties(captains [2]string, parties []partyGroup) [2]*partyGroup {
	var out [2]*partyGroup
	for i, captain := range captains {
		for j := range parties {
			if parties[j].has(captain) {
				out[i] = &parties[j]
				break
			}
		}
	}
	return out
}

// firstCaptainPicks is the serpentine order 1,2,2,1,1,2,2,1,...
func firstCaptainPicks(pickCount int) bool {
	round := pickCount / 2
	if round%2 == 0 {
		return pickCount%2 == 0
	}
	return pickCount%2 == 1
}
