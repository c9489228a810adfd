// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Validate(t *testing.T) {
	tests := []struct {
		name  string
		queue Queue
		want  error
	}{
		{"valid", Queue{ID: "q", Capacity: 8, RatingMax: 100}, nil},
		{"valid draft", Queue{ID: "q", Capacity: 8, RatingMin: 10, RatingMax: 100, Mode: QueueModeDraft, Active: true}, nil},
		{"missing id", Queue{Capacity: 8}, ErrInvalidQueue},
		{"single player", Queue{ID: "q", Capacity: 1}, ErrInvalidQueue},
		{"oversized", Queue{ID: "q", Capacity: 101}, ErrInvalidQueue},
		{"negative rating", Queue{ID: "q", Capacity: 4, RatingMin: -5, RatingMax: 10}, ErrInvalidQueue},
		{"unknown mode", Queue{ID: "q", Capacity: 4, Mode: "ladder"}, ErrInvalidQueue},
		{"inverted range", Queue{ID: "q", Capacity: 4, RatingMin: 50, RatingMax: 10}, ErrQueueRatingRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.queue.Validate(), tt.want)
		})
	}
}

func TestQueue_EffectiveMode(t *testing.T) {
	tests := []struct {
		capacity int
		mode     QueueMode
		want     QueueMode
	}{
		{2, QueueModeDraft, QueueModeRandom},
		{4, QueueModeDraft, QueueModeDraft},
		{8, QueueModeRandom, QueueModeRandom},
		{8, "", QueueModeRandom},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.capacity, tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, Queue{Capacity: tt.capacity, Mode: tt.mode}.EffectiveMode())
		})
	}
}

func TestQueue_AcceptsRating(t *testing.T) {
	q := Queue{RatingMin: 100, RatingMax: 200}
	assert.True(t, q.AcceptsRating(100))
	assert.True(t, q.AcceptsRating(200))
	assert.False(t, q.AcceptsRating(99))
	assert.False(t, q.AcceptsRating(201))
	assert.Equal(t, 4, Queue{Capacity: 8}.TeamSize())
}

func TestBracketFor(t *testing.T) {
	brackets := []RatingBracket{
		{Name: "High", Start: 100, End: 199},
		{Name: "Low", Start: 0, End: 99},
	}
	SortBrackets(brackets)
	require.Equal(t, "Low", brackets[0].Name)

	b, ok := BracketFor(brackets, 100)
	assert.True(t, ok)
	assert.Equal(t, "High", b.Name)

	_, ok = BracketFor(brackets, 500)
	assert.False(t, ok)
}

func TestPlayerStats_SubtractFloorsAtZero(t *testing.T) {
	s := PlayerStats{Kills: 3, Deaths: 1, BedsBroken: 1}
	s.Add(PlayerStats{Kills: 2, FinalKills: 1})
	assert.Equal(t, 5, s.Kills)

	s.Subtract(PlayerStats{Kills: 7, Deaths: 1, FinalKills: 1})
	assert.Equal(t, PlayerStats{BedsBroken: 1}, s)
}

func TestPlayer_RecentGames(t *testing.T) {
	p := &Player{}
	for id := 1; id <= 4; id++ {
		p.PutRecentGame(RecentGame{GameID: id}, 3)
	}
	require.Len(t, p.RecentGames, 3)
	assert.Equal(t, 4, p.RecentGames[0].GameID)
	assert.Equal(t, -1, p.RecentGameIndex(1))

	p.PutRecentGame(RecentGame{GameID: 3, Won: true}, 3)
	require.Len(t, p.RecentGames, 3)
	assert.True(t, p.RecentGames[p.RecentGameIndex(3)].Won)
}

func TestPlayer_RecordDailyRating(t *testing.T) {
	day := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p := &Player{Rating: 100}
	p.RecordDailyRating(day, 2)
	p.Rating = 120
	p.RecordDailyRating(day.Add(3*time.Hour), 2)
	require.Len(t, p.DailyRating, 1)
	assert.Equal(t, 120, p.DailyRating[0].Rating)

	p.RecordDailyRating(day.Add(24*time.Hour), 2)
	p.RecordDailyRating(day.Add(48*time.Hour), 2)
	require.Len(t, p.DailyRating, 2)
	assert.Equal(t, day.Add(24*time.Hour).Truncate(24*time.Hour), p.DailyRating[0].Date)
}

func TestPlayer_RatiosAndRestrictions(t *testing.T) {
	p := &Player{Wins: 3, Losses: 0, Stats: PlayerStats{Kills: 10, Deaths: 3}}
	p.RecomputeRatios()
	assert.Equal(t, 3.33, p.KDR)
	assert.Equal(t, 3.0, p.WLR)

	assert.False(t, p.Restricted())
	p.Frozen = true
	assert.True(t, p.Restricted())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, 510303, ErrorCode(fmt.Errorf("score: %w", ErrGameNotFound)))
	assert.Equal(t, 510202, ErrorCode(ErrQueueCapacity))
	assert.Equal(t, 510201, ErrorCode(Queue{Capacity: 4}.Validate()))
	assert.Equal(t, 20002, ErrorCode(errors.New("anything else")))
}
