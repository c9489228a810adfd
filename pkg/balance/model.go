// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package balance

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Unit is a group of players that must land on the same team, e.g. a party.
// A solo player is a Unit with one member.
type Unit struct {
	Members []string
	Ratings []float64
}

func Solo(playerID string, rating float64) Unit {
	return Unit{Members: []string{playerID}, Ratings: []float64{rating}}
}

func (u Unit) Sum() float64 {
	if len(u.Ratings) == 0 {
		return 0
	}
	return floats.Sum(u.Ratings)
}

func (u Unit) Count() int {
	return len(u.Members)
}

func (u Unit) String() string {
	return fmt.Sprintf("%v", u.Members)
}

type team struct {
	sum   float64
	count int
	units []int
}

func (t *team) push(u Unit, index int) {
	t.sum += u.Sum()
	t.count += u.Count()
	t.units = append(t.units, index)
}

func (t *team) pop(u Unit) {
	t.units = t.units[:len(t.units)-1]
	t.sum -= u.Sum()
	t.count -= u.Count()
}

func (t *team) avg() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}

// Split is the outcome of a two-team partition.
type Split struct {
	Team1 []string
	Team2 []string

	Team1Avg  float64
	Team2Avg  float64
	CountDiff int
	AvgGap    float64

	// Iterations is the number of complete assignments evaluated.
	Iterations int
	// Truncated is set when the search stopped early on cancellation or the iteration limit.
	Truncated bool
}
