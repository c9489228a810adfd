// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/mathutil"
)

// PlayerStats are the per-game counters reported by the game server and
// accumulated on the player profile.
type PlayerStats struct {
	Kills        int `json:"kills"`
	Deaths       int `json:"deaths"`
	BedsBroken   int `json:"bedBroken"`
	FinalKills   int `json:"finalKills"`
	Diamonds     int `json:"diamonds"`
	Irons        int `json:"irons"`
	Gold         int `json:"gold"`
	Emeralds     int `json:"emeralds"`
	BlocksPlaced int `json:"blocksPlaced"`
}

func (s *PlayerStats) Add(o PlayerStats) {
	s.Kills += o.Kills
	s.Deaths += o.Deaths
	s.BedsBroken += o.BedsBroken
	s.FinalKills += o.FinalKills
	s.Diamonds += o.Diamonds
	s.Irons += o.Irons
	s.Gold += o.Gold
	s.Emeralds += o.Emeralds
	s.BlocksPlaced += o.BlocksPlaced
}

// Subtract removes o, never letting a counter drop below zero.
func (s *PlayerStats) Subtract(o PlayerStats) {
	s.Kills = mathutil.FloorZero(s.Kills - o.Kills)
	s.Deaths = mathutil.FloorZero(s.Deaths - o.Deaths)
	s.BedsBroken = mathutil.FloorZero(s.BedsBroken - o.BedsBroken)
	s.FinalKills = mathutil.FloorZero(s.FinalKills - o.FinalKills)
	s.Diamonds = mathutil.FloorZero(s.Diamonds - o.Diamonds)
	s.Irons = mathutil.FloorZero(s.Irons - o.Irons)
	s.Gold = mathutil.FloorZero(s.Gold - o.Gold)
	s.Emeralds = mathutil.FloorZero(s.Emeralds - o.Emeralds)
	s.BlocksPlaced = mathutil.FloorZero(s.BlocksPlaced - o.BlocksPlaced)
}

// RecentGame mirrors one game from a player's perspective. Its State makes
// void idempotent: only a scored entry is ever reverted.
type RecentGame struct {
	GameID       int         `json:"gameId"`
	QueueID      string      `json:"queueid,omitempty"`
	Map          string      `json:"map"`
	RatingChange int         `json:"eloGain"`
	Stats        PlayerStats `json:"stats"`
	Won          bool        `json:"won"`
	MVP          bool        `json:"ismvp"`
	State        GameState   `json:"state"`
	Date         time.Time   `json:"date"`
	StartTime    time.Time   `json:"startTime"`
	EndTime      time.Time   `json:"endTime,omitempty"`
}

type DailyRating struct {
	Rating int       `json:"elo"`
	Date   time.Time `json:"date"`
}

// Sanction is a moderation record. Issued elsewhere, read-only here.
type Sanction struct {
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	Moderator string    `json:"moderator"`
	Date      time.Time `json:"date"`
}

type Player struct {
	ID          string        `json:"discordId"`
	IGN         string        `json:"ign"`
	Rating      int           `json:"elo"`
	Level       int           `json:"level"`
	Experience  int           `json:"experience"`
	Wins        int           `json:"wins"`
	Losses      int           `json:"losses"`
	Games       int           `json:"games"`
	MVPs        int           `json:"mvps"`
	WinStreak   int           `json:"winstreak"`
	LoseStreak  int           `json:"losestreak"`
	Stats       PlayerStats   `json:"stats"`
	KDR         float64       `json:"kdr"`
	WLR         float64       `json:"wlr"`
	Banned      bool          `json:"isbanned"`
	Frozen      bool          `json:"isfrozen"`
	Muted       bool          `json:"ismuted"`
	PartyID     string        `json:"partyId,omitempty"`
	RecentGames []RecentGame  `json:"recentGames"`
	DailyRating []DailyRating `json:"dailyElo"`
	Sanctions   []Sanction    `json:"sanctions,omitempty"`
}

// Restricted reports whether the player is barred from queueing.
func (p *Player) Restricted() bool {
	return p.Banned || p.Frozen
}

// RecentGameIndex returns the index of the entry for gameID, or -1.
func (p *Player) RecentGameIndex(gameID int) int {
	for i := range p.RecentGames {
		if p.RecentGames[i].GameID == gameID {
			return i
		}
	}
	return -1
}

// PutRecentGame replaces the entry for the same game, or prepends it and trims to limit.
func (p *Player) PutRecentGame(entry RecentGame, limit int) {
	if idx := p.RecentGameIndex(entry.GameID); idx >= 0 {
		p.RecentGames[idx] = entry
		return
	}
	p.RecentGames = append([]RecentGame{entry}, p.RecentGames...)
	if limit > 0 && len(p.RecentGames) > limit {
		p.RecentGames = p.RecentGames[:limit]
	}
}

// RecordDailyRating stores the current rating against today's date, keeping the last limit days.
func (p *Player) RecordDailyRating(now time.Time, limit int) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	for i := range p.DailyRating {
		if p.DailyRating[i].Date.Equal(today) {
			p.DailyRating[i].Rating = p.Rating
			return
		}
	}
	p.DailyRating = append(p.DailyRating, DailyRating{Rating: p.Rating, Date: today})
	if limit > 0 && len(p.DailyRating) > limit {
		p.DailyRating = p.DailyRating[len(p.DailyRating)-limit:]
	}
}

func (p *Player) RecomputeRatios() {
	p.KDR = mathutil.Ratio(p.Stats.Kills, p.Stats.Deaths)
	p.WLR = mathutil.Ratio(p.Wins, p.Losses)
}
