// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package gameserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// message types on the game server socket
const (
	TypeWarpPlayers    = "warp_players"
	TypeCheckPlayer    = "check_player"
	TypeScoringSuccess = "scoringsuccess"
	TypeGameVoided     = "gamevoided"

	TypeWarpSuccess         = "warp_success"
	TypeWarpArenaNotFound   = "warp_failed_arena_not_found"
	TypeWarpOfflinePlayers  = "warp_failed_offline_players"
	TypeWarpFailureUnknown  = "warp_failure_unknown"
	TypeRetryGame           = "retrygame"
	TypeScoring             = "scoring"
	TypeVoiding             = "voiding"
	TypeMapsInfo            = "maps_info"
	TypePlayerStatus        = "player_status"
	TypePlayerStatusUpdated = "player_status_update"
)

// GameID accepts both `"12"` and `12` on the wire.
type GameID int

func (id *GameID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("game id %q: %w", s, err)
		}
		*id = GameID(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = GameID(n)
	return nil
}

type WarpTeam struct {
	Players []string `json:"players"`
}

type WarpPlayers struct {
	Type     string   `json:"type"`
	GameID   string   `json:"game_id"`
	Map      string   `json:"map"`
	IsRanked bool     `json:"is_ranked"`
	Team1    WarpTeam `json:"team1"`
	Team2    WarpTeam `json:"team2"`
}

func NewWarpPlayers(gameID int, mapName string, ranked bool, team1IGNs, team2IGNs []string) WarpPlayers {
	return WarpPlayers{
		Type:     TypeWarpPlayers,
		GameID:   strconv.Itoa(gameID),
		Map:      mapName,
		IsRanked: ranked,
		Team1:    WarpTeam{Players: team1IGNs},
		Team2:    WarpTeam{Players: team2IGNs},
	}
}

type CheckPlayer struct {
	Type string `json:"type"`
	IGN  string `json:"ign"`
}

type ScoringSuccess struct {
	Type    string   `json:"type"`
	GameID  int      `json:"gameid"`
	Players []string `json:"players"`
}

func NewScoringSuccess(gameID int, igns []string) ScoringSuccess {
	return ScoringSuccess{Type: TypeScoringSuccess, GameID: gameID, Players: igns}
}

type GameVoided struct {
	Type    string   `json:"type"`
	GameID  int      `json:"gameid"`
	Reason  string   `json:"reason"`
	Players []string `json:"players"`
}

func NewGameVoided(gameID int, reason string, igns []string) GameVoided {
	return GameVoided{Type: TypeGameVoided, GameID: gameID, Reason: reason, Players: igns}
}

type inbound struct {
	Type string `json:"type"`
}

type warpResultPayload struct {
	GameID    GameID `json:"gameId"`
	GameIDAlt GameID `json:"game_id"`
}

func (p warpResultPayload) id() int {
	if p.GameID != 0 {
		return int(p.GameID)
	}
	return int(p.GameIDAlt)
}

type reportedStats struct {
	Kills        int `json:"kills"`
	Deaths       int `json:"deaths"`
	FinalKills   int `json:"finalkills"`
	Diamonds     int `json:"diamonds"`
	Irons        int `json:"irons"`
	Gold         int `json:"gold"`
	Emeralds     int `json:"emeralds"`
	BlocksPlaced int `json:"blocksplaced"`
}

type scoringPayload struct {
	GameID            GameID                   `json:"gameid"`
	WinningTeamNumber *int                     `json:"winningTeamNumber"`
	WinningTeamIGNs   []string                 `json:"winningteamignlist"`
	MVPs              []string                 `json:"mvps"`
	BedsBroken        []string                 `json:"bedsbroken"`
	Players           map[string]reportedStats `json:"players"`
}

type voidingPayload struct {
	GameID GameID `json:"gameid"`
	Reason string `json:"reason"`
}

type reportedMap struct {
	Name          string `json:"name"`
	MaxPlayers    *int   `json:"maxplayers"`
	MaxPlayersAlt *int   `json:"max_players"`
}

type mapsInfoPayload struct {
	Reserved []reportedMap `json:"reserved"`
	Locked   []reportedMap `json:"locked"`
	Disabled []reportedMap `json:"disabled"`
}

type playerStatusPayload struct {
	IGN             string `json:"ign"`
	Online          bool   `json:"online"`
	OriginalIGNCase string `json:"original_ign_case"`
}

// WarpOutcome is the game server's answer to a warp request.
type WarpOutcome string

const (
	WarpSucceeded       WarpOutcome = "success"
	WarpArenaNotFound   WarpOutcome = "Arena not found"
	WarpPlayersOffline  WarpOutcome = "Some players are offline"
	WarpUnknownFailure  WarpOutcome = "Unknown warp failure"
	WarpTimedOut        WarpOutcome = "Warp timeout"
	WarpRetryRequested  WarpOutcome = "retry"
	warpOutcomeNotAWarp WarpOutcome = ""
)

func warpOutcomeOf(msgType string) WarpOutcome {
	switch msgType {
	case TypeWarpSuccess:
		return WarpSucceeded
	case TypeWarpArenaNotFound:
		return WarpArenaNotFound
	case TypeWarpOfflinePlayers:
		return WarpPlayersOffline
	case TypeWarpFailureUnknown:
		return WarpUnknownFailure
	case TypeRetryGame:
		return WarpRetryRequested
	default:
		return warpOutcomeNotAWarp
	}
}

// ScoringEvent is a finished game reported by the server. Player names are IGNs.
type ScoringEvent struct {
	GameID int
	// WinningTeam is 1 or 2, or 0 when only WinningIGNs were reported.
	WinningTeam int
	WinningIGNs []string
	MVPs        []string
	BedBreakers []string
	Stats       map[string]models.PlayerStats
}
