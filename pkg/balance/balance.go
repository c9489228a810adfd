// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package balance splits rated units into two teams.
package balance

import (
	"context"
	"errors"
	"math"
	"sort"
)

// limit based on complete assignments evaluated
const iterationLimit = 1_000_000

var ErrNoFeasibleSplit = errors.New("no feasible two-team split")

type search struct {
	ctx        context.Context
	units      []Unit
	teams      [2]*team
	maxCount   int
	iterations int
	truncated  bool

	bestCountDiff int
	bestGap       float64
	best          [2][]int
	found         bool
}

func (s *search) canceled() bool {
	if s.iterations >= iterationLimit {
		s.truncated = true
		return true
	}
	if s.ctx == nil {
		return false
	}
	select {
	case <-s.ctx.Done():
		s.truncated = true
		return true
	default:
		return false
	}
}

func (s *search) record() {
	s.iterations++
	t1, t2 := s.teams[0], s.teams[1]
	if t1.count == 0 || t2.count == 0 {
		return
	}
	diff := t1.count - t2.count
	if diff < 0 {
		diff = -diff
	}
	gap := math.Abs(t1.avg() - t2.avg())
	if !s.found || diff < s.bestCountDiff || (diff == s.bestCountDiff && gap < s.bestGap) {
		s.found = true
		s.bestCountDiff = diff
		s.bestGap = gap
		s.best[0] = append(s.best[0][:0], t1.units...)
		s.best[1] = append(s.best[1][:0], t2.units...)
	}
}

// dfs is a complete greedy search: each unit is tried on the lighter team
// first, so good splits are found early and the rest prunes on team size.
func (s *search) dfs(depth int) {
	if s.canceled() {
		return
	}
	if depth == len(s.units) {
		s.record()
		return
	}

	u := s.units[depth]
	order := [2]int{0, 1}
	if s.teams[1].sum < s.teams[0].sum {
		order = [2]int{1, 0}
	}
	for _, i := range order {
		// the heaviest unit is pinned to the first team, mirrored splits are equivalent
		if depth == 0 && i == 1 {
			continue
		}
		if s.teams[i].count+u.Count() > s.maxCount {
			continue
		}
		s.teams[i].push(u, depth)
		s.dfs(depth + 1)
		s.teams[i].pop(u)
	}
}

// TwoTeams assigns every unit to one of two teams holding at most teamSize
// players each. Among feasible assignments the smallest player-count difference
// wins, then the smallest gap between average ratings.
//
// Cancellation returns the best split found so far, or ctx.Err() if there is none.
func TwoTeams(ctx context.Context, units []Unit, teamSize int) (Split, error) {
	total := 0
	for _, u := range units {
		total += u.Count()
	}
	if len(units) < 2 || teamSize <= 0 || total > teamSize*2 {
		return Split{}, ErrNoFeasibleSplit
	}

	sorted := make([]Unit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sum() > sorted[j].Sum()
	})

	s := &search{
		ctx:      ctx,
		units:    sorted,
		teams:    [2]*team{{}, {}},
		maxCount: teamSize,
	}
	s.dfs(0)

	if !s.found {
		if s.truncated && ctx != nil && ctx.Err() != nil {
			return Split{}, ctx.Err()
		}
		return Split{}, ErrNoFeasibleSplit
	}

	result := Split{
		CountDiff:  s.bestCountDiff,
		AvgGap:     s.bestGap,
		Iterations: s.iterations,
		Truncated:  s.truncated,
	}
	var sums [2]float64
	var counts [2]int
	for i, indexes := range s.best {
		for _, index := range indexes {
			u := sorted[index]
			sums[i] += u.Sum()
			counts[i] += u.Count()
			if i == 0 {
				result.Team1 = append(result.Team1, u.Members...)
			} else {
				result.Team2 = append(result.Team2, u.Members...)
			}
		}
	}
	result.Team1Avg = sums[0] / float64(counts[0])
	result.Team2Avg = sums[1] / float64(counts[1])

	return result, nil
}
