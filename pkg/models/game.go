// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import "time"

type GameState string

const (
	GameStatePending GameState = "pending"
	GameStateScored  GameState = "scored"
	GameStateVoided  GameState = "voided"
)

type GameChannels struct {
	Text         string `json:"text"`
	Team1Voice   string `json:"team1Voice"`
	Team2Voice   string `json:"team2Voice"`
	PickingText  string `json:"pickingText,omitempty"`
	PickingVoice string `json:"pickingVoice,omitempty"`
}

// All lists the non-empty channel ids.
func (c GameChannels) All() []string {
	ids := make([]string, 0, 5)
	for _, id := range []string{c.Text, c.Team1Voice, c.Team2Voice, c.PickingText, c.PickingVoice} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Game is never deleted; it stays as the audit trail of a match.
type Game struct {
	ID          int          `json:"gameId"`
	Map         string       `json:"map"`
	Team1       []string     `json:"team1"`
	Team2       []string     `json:"team2"`
	State       GameState    `json:"state"`
	Winners     []string     `json:"winners"`
	Losers      []string     `json:"losers"`
	MVPs        []string     `json:"mvps"`
	BedBreakers []string     `json:"bedbreaks"`
	QueueID     string       `json:"queueId"`
	Ranked      bool         `json:"isRanked"`
	Parties     [][]string   `json:"partiesInThisGame,omitempty"`
	Channels    GameChannels `json:"channels"`
	StartTime   time.Time    `json:"startTime"`
	EndTime     time.Time    `json:"endTime,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

func (g *Game) Players() []string {
	players := make([]string, 0, len(g.Team1)+len(g.Team2))
	players = append(players, g.Team1...)
	return append(players, g.Team2...)
}

// TeamOf returns 1 or 2, or 0 when the player is not in this game.
func (g *Game) TeamOf(playerID string) int {
	for _, id := range g.Team1 {
		if id == playerID {
			return 1
		}
	}
	for _, id := range g.Team2 {
		if id == playerID {
			return 2
		}
	}
	return 0
}

func (g *Game) Team(number int) []string {
	if number == 1 {
		return g.Team1
	}
	return g.Team2
}

// ValidateTeams checks that both teams are populated and disjoint.
func (g *Game) ValidateTeams() error {
	if len(g.Team1) == 0 || len(g.Team2) == 0 {
		return ErrMalformedTeams
	}
	seen := make(map[string]struct{}, len(g.Team1)+len(g.Team2))
	for _, id := range g.Players() {
		if _, dup := seen[id]; dup {
			return ErrOverlappingTeams
		}
		seen[id] = struct{}{}
	}
	return nil
}

// CanTransition reports whether the lifecycle allows moving to next.
// pending -> scored, pending|scored -> voided; voided is terminal.
func (g *Game) CanTransition(next GameState) bool {
	switch g.State {
	case GameStatePending:
		return next == GameStateScored || next == GameStateVoided
	case GameStateScored:
		return next == GameStateVoided
	default:
		return false
	}
}
