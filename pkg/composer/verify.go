// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"fmt"

	"github.com/elliotchance/pie/v2"
)

type VerificationKind int

const (
	Verified VerificationKind = iota
	Repaired
	EmergencyFallback
)

func (k VerificationKind) String() string {
	switch k {
	case Verified:
		return "verified"
	case Repaired:
		return "repaired"
	default:
		return "emergency_fallback"
	}
}

type VerificationOutcome struct {
	Kind   VerificationKind
	Team1  []string
	Team2  []string
	Issues []string
}

// VerifyTeams re-derives the final teams of a draft. Teams that already pass
// every check are returned as Verified. Otherwise captains, captain parties
// and unplaced players are put back and sizes evened out (Repaired). If the
// result still fails, captains stay and everyone else alternates between
// the teams (EmergencyFallback). Every candidate ends up on exactly one team.
func VerifyTeams(state SessionState) VerificationOutcome {
	candidates := uniqueIDs(state.Candidates)
	for _, c := range state.Captains {
		if !pie.Contains(candidates, c) {
			candidates = append(candidates, c)
		}
	}

	if issues := checkTeams(state, candidates, state.Team1, state.Team2); len(issues) == 0 {
		return VerificationOutcome{Kind: Verified, Team1: clone(state.Team1), Team2: clone(state.Team2)}
	}

	team1, team2, notes := repairTeams(state, candidates)
	issues := checkTeams(state, candidates, team1, team2)
	if len(issues) == 0 {
		return VerificationOutcome{Kind: Repaired, Team1: team1, Team2: team2, Issues: notes}
	}

	team1, team2 = emergencySplit(state.Captains, candidates)
	return VerificationOutcome{Kind: EmergencyFallback, Team1: team1, Team2: team2, Issues: append(notes, issues...)}
}

func clone(list []string) []string {
	return append([]string(nil), list...)
}

func uniqueIDs(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, id := range list {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// checkTeams lists every broken rule; an empty result means the teams are final.
func checkTeams(state SessionState, candidates, team1, team2 []string) []string {
	var issues []string

	seen := make(map[string]int, len(team1)+len(team2))
	for _, id := range team1 {
		seen[id]++
	}
	for _, id := range team2 {
		seen[id]++
	}
	for id, n := range seen {
		if n > 1 {
			issues = append(issues, fmt.Sprintf("player %s placed %d times", id, n))
		}
		if !pie.Contains(candidates, id) {
			issues = append(issues, fmt.Sprintf("player %s is not a candidate", id))
		}
	}
	for _, id := range candidates {
		if seen[id] == 0 {
			issues = append(issues, fmt.Sprintf("player %s is not on a team", id))
		}
	}

	if !pie.Contains(team1, state.Captains[0]) {
		issues = append(issues, fmt.Sprintf("captain %s not on team 1", state.Captains[0]))
	}
	if !pie.Contains(team2, state.Captains[1]) {
		issues = append(issues, fmt.Sprintf("captain %s not on team 2", state.Captains[1]))
	}

	for i, captain := range state.Captains {
		members, ok := state.captainParty(captain)
		if !ok {
			continue
		}
		own := team1
		if i == 1 {
			own = team2
		}
		for _, m := range members {
			if !pie.Contains(own, m) {
				issues = append(issues, fmt.Sprintf("party member %s is not with captain %s", m, captain))
			}
		}
	}

	if diff := len(team1) - len(team2); diff > 1 || diff < -1 {
		issues = append(issues, fmt.Sprintf("team sizes %d and %d", len(team1), len(team2)))
	}
	return issues
}

func repairTeams(state SessionState, candidates []string) ([]string, []string, []string) {
	var notes []string
	c1, c2 := state.Captains[0], state.Captains[1]

	var team1, team2 []string
	if !pie.Contains(state.Team1, c1) {
		notes = append(notes, "captain 1 missing from team 1, teams reset")
		team1, team2 = []string{c1}, []string{c2}
	} else {
		team1 = keep(uniqueIDs(state.Team1), candidates, c2)
		team2 = keep(uniqueIDs(state.Team2), candidates, c1)
		team2 = pie.Filter(team2, func(id string) bool { return !pie.Contains(team1, id) })
		if !pie.Contains(team2, c2) {
			notes = append(notes, "captain 2 missing from team 2")
			team2 = append([]string{c2}, team2...)
		}
	}

	// captain parties go with their captain
	locked := map[string]bool{c1: true, c2: true}
	for i, captain := range state.Captains {
		members, ok := state.captainParty(captain)
		if !ok {
			continue
		}
		for _, m := range members {
			locked[m] = true
			if i == 0 && !pie.Contains(team1, m) {
				team2 = remove(team2, m)
				team1 = append(team1, m)
				notes = append(notes, fmt.Sprintf("party member %s moved to team 1", m))
			}
			if i == 1 && !pie.Contains(team2, m) {
				team1 = remove(team1, m)
				team2 = append(team2, m)
				notes = append(notes, fmt.Sprintf("party member %s moved to team 2", m))
			}
		}
	}

	for _, id := range candidates {
		if pie.Contains(team1, id) || pie.Contains(team2, id) {
			continue
		}
		if len(team1) <= len(team2) {
			team1 = append(team1, id)
		} else {
			team2 = append(team2, id)
		}
		notes = append(notes, fmt.Sprintf("unplaced player %s assigned", id))
	}

	for len(team1)-len(team2) > 1 || len(team2)-len(team1) > 1 {
		var moved bool
		if len(team1) > len(team2) {
			team1, team2, moved = moveLast(team1, team2, locked)
		} else {
			team2, team1, moved = moveLast(team2, team1, locked)
		}
		if !moved {
			break
		}
		notes = append(notes, "moved a player to even team sizes")
	}
	return team1, team2, notes
}

// keep drops players that are not candidates or that belong to the other captain.
func keep(team, candidates []string, otherCaptain string) []string {
	return pie.Filter(team, func(id string) bool {
		return id != otherCaptain && pie.Contains(candidates, id)
	})
}

func remove(team []string, playerID string) []string {
	return pie.Filter(team, func(id string) bool { return id != playerID })
}

// moveLast moves the last player of from that is neither a captain nor in a
// captain's party.
func moveLast(from, to []string, locked map[string]bool) ([]string, []string, bool) {
	for i := len(from) - 1; i >= 0; i-- {
		if locked[from[i]] {
			continue
		}
		id := from[i]
		from = append(from[:i:i], from[i+1:]...)
		return from, append(to, id), true
	}
	return from, to, false
}

func emergencySplit(captains [2]string, candidates []string) ([]string, []string) {
	team1 := []string{captains[0]}
	team2 := []string{captains[1]}
	i := 0
	for _, id := range candidates {
		if id == captains[0] || id == captains[1] {
			continue
		}
		if i%2 == 0 {
			team1 = append(team1, id)
		} else {
			team2 = append(team2, id)
		}
		i++
	}
	return team1, team2
}
