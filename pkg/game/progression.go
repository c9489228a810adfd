// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"github.com/rbwleague/matchcoordinator/pkg/mathutil"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// experience rewards per game
const (
	XPWin       = 15
	XPLoss      = 5
	XPMVP       = 10
	XPBedBreak  = 5
	XPKill      = 1
	XPFinalKill = 2

	baseLevelCost = 100
	levelCostStep = 25
)

// Outcome is one player's result in one game.
type Outcome struct {
	Won      bool
	MVP      bool
	BedBreak bool
	Stats    models.PlayerStats
}

func ExperienceFor(o Outcome) int {
	xp := XPLoss
	if o.Won {
		xp = XPWin
	}
	if o.MVP {
		xp += XPMVP
	}
	if o.BedBreak {
		xp += XPBedBreak
	}
	return xp + o.Stats.Kills*XPKill + o.Stats.FinalKills*XPFinalKill
}

// LevelFor maps total experience to a level. Level 2 costs 100 xp and every
// further level costs 25 more than the one before.
func LevelFor(experience int) int {
	level, cost := 1, baseLevelCost
	for experience >= cost {
		experience -= cost
		level++
		cost += levelCostStep
	}
	return level
}

// RatingDelta is the signed rating change for an outcome at the given bracket.
// A player outside every bracket does not move.
func RatingDelta(brackets []models.RatingBracket, rating int, o Outcome) int {
	b, ok := models.BracketFor(brackets, rating)
	if !ok {
		return 0
	}
	delta := -b.Loss
	if o.Won {
		delta = b.Win
	}
	if o.MVP {
		delta += b.MVP
	}
	if o.BedBreak {
		delta += b.BedBreak
	}
	return delta
}

// applyOutcome adds a scored game to the profile and returns the rating
// change that was actually applied after clamping at zero.
func applyOutcome(p *models.Player, o Outcome, delta int) (applied int, levelUp bool) {
	before := p.Rating
	p.Rating = mathutil.FloorZero(p.Rating + delta)
	applied = p.Rating - before

	if o.Won {
		p.Wins++
		p.WinStreak++
		p.LoseStreak = 0
	} else {
		p.Losses++
		p.LoseStreak++
		p.WinStreak = 0
	}
	if o.MVP {
		p.MVPs++
	}
	p.Stats.Add(o.Stats)

	oldLevel := p.Level
	p.Experience += ExperienceFor(o)
	p.Level = LevelFor(p.Experience)
	p.RecomputeRatios()
	return applied, p.Level > oldLevel
}

// revertOutcome undoes applyOutcome for a previously scored entry. Streaks
// are left alone; they cannot be rebuilt from one entry.
func revertOutcome(p *models.Player, entry models.RecentGame) {
	o := Outcome{
		Won:      entry.Won,
		MVP:      entry.MVP,
		BedBreak: entry.Stats.BedsBroken > 0,
		Stats:    entry.Stats,
	}
	p.Rating = mathutil.FloorZero(p.Rating - entry.RatingChange)
	if o.Won {
		p.Wins = mathutil.FloorZero(p.Wins - 1)
	} else {
		p.Losses = mathutil.FloorZero(p.Losses - 1)
	}
	if o.MVP {
		p.MVPs = mathutil.FloorZero(p.MVPs - 1)
	}
	p.Stats.Subtract(o.Stats)
	p.Experience = mathutil.FloorZero(p.Experience - ExperienceFor(o))
	p.Level = LevelFor(p.Experience)
	p.RecomputeRatios()
}
