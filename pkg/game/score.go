// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	validator "github.com/AccelByte/justice-input-validation-go"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// ScoreRequest is a finished game. Player references in WinningIGNs, MVPs,
// BedBreakers and Stats are in-game names, matched case-insensitively.
type ScoreRequest struct {
	GameID int `valid:"required,range(1|2147483647)"`
	// WinningTeam is 1 or 2; ignored when WinningIGNs resolve to a team.
	WinningTeam int                           `optional:"true" valid:"range(0|2)"`
	WinningIGNs []string                      `valid:"-"`
	MVPs        []string                      `valid:"-"`
	BedBreakers []string                      `valid:"-"`
	Stats       map[string]models.PlayerStats `valid:"-"`
	Reason      string                        `optional:"true" valid:"stringlength(1|2000)"`
}

// Validate checks the request on its own, before any game is loaded.
func (r ScoreRequest) Validate() error {
	if _, err := validator.ValidateStruct(r); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidScoreResult, err)
	}
	if r.WinningTeam == 0 && len(r.WinningIGNs) == 0 {
		return models.ErrInvalidScoreResult
	}
	return nil
}

func ScoreRequestFromEvent(event gameserver.ScoringEvent) ScoreRequest {
	return ScoreRequest{
		GameID:      event.GameID,
		WinningTeam: event.WinningTeam,
		WinningIGNs: event.WinningIGNs,
		MVPs:        event.MVPs,
		BedBreakers: event.BedBreakers,
		Stats:       event.Stats,
		Reason:      "Scored by game server",
	}
}

type PlayerChange struct {
	PlayerID     string
	IGN          string
	Won          bool
	MVP          bool
	BedBreak     bool
	RatingChange int
	Rating       int
	LevelUp      bool
}

type ScoreResult struct {
	GameID      int
	WinningTeam int
	Changes     []PlayerChange
	// Failed holds the players whose profile update did not persist.
	Failed []string
}

// ScoreGame moves a pending game to scored and applies the result to every
// player. Per-player updates are independent; a failed save is reported in
// the result and does not stop the transition.
func (m *Manager) ScoreGame(scope *envelope.Scope, req ScoreRequest) (ScoreResult, error) {
	if err := req.Validate(); err != nil {
		return ScoreResult{}, err
	}
	scope.SetAttributes(envelope.GameIDTag, req.GameID)

	unlock := m.lockGame(req.GameID)
	defer unlock()

	g, err := m.findGame(scope.Ctx, req.GameID)
	if err != nil {
		return ScoreResult{}, err
	}
	switch g.State {
	case models.GameStateScored:
		return ScoreResult{}, fmt.Errorf("game %d: %w", g.ID, models.ErrGameAlreadyScored)
	case models.GameStateVoided:
		return ScoreResult{}, fmt.Errorf("game %d: %w", g.ID, models.ErrGameAlreadyVoided)
	}
	if err := g.ValidateTeams(); err != nil {
		return ScoreResult{}, fmt.Errorf("game %d: %w", g.ID, err)
	}

	players, err := m.players.FindPlayers(scope.Ctx, g.Players())
	if err != nil {
		return ScoreResult{}, fmt.Errorf("load players of game %d: %w", g.ID, err)
	}
	if len(players) != len(g.Players()) {
		return ScoreResult{}, fmt.Errorf("game %d: %w", g.ID, models.ErrPlayersMissing)
	}
	byIGN := make(map[string]*models.Player, len(players))
	for _, p := range players {
		byIGN[strings.ToLower(p.IGN)] = p
	}

	winner, err := winningTeam(g, byIGN, req)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("game %d: %w", g.ID, err)
	}

	brackets, err := m.ratings.RatingBrackets(scope.Ctx)
	if err != nil {
		scope.Log.WithError(err).Warnf("[game] game %d: rating brackets unavailable, ratings stay put", g.ID)
	}
	models.SortBrackets(brackets)

	mvps := lowerSet(req.MVPs)
	bedBreakers := lowerSet(req.BedBreakers)
	stats := make(map[string]models.PlayerStats, len(req.Stats))
	for ign, s := range req.Stats {
		stats[strings.ToLower(ign)] = s
	}

	now := m.clock()
	summary := asyncutil.SettleAll(scope.Ctx, constants.PlayerFanOutLimit, players, func(ctx context.Context, p *models.Player) (PlayerChange, error) {
		key := strings.ToLower(p.IGN)
		o := Outcome{
			Won:   g.TeamOf(p.ID) == winner,
			MVP:   mvps[key],
			Stats: stats[key],
		}
		o.BedBreak = bedBreakers[key] || o.Stats.BedsBroken > 0
		if bedBreakers[key] && o.Stats.BedsBroken == 0 {
			o.Stats.BedsBroken = 1
		}
		return m.applyScore(ctx, g, p, o, brackets, now)
	})

	result := ScoreResult{GameID: g.ID, WinningTeam: winner}
	for i, r := range summary.Results {
		if r.Err != nil {
			result.Failed = append(result.Failed, players[i].ID)
			scope.Log.WithError(r.Err).Errorf("[game] game %d: player %s not updated", g.ID, players[i].ID)
			continue
		}
		result.Changes = append(result.Changes, r.Value)
	}

	g.State = models.GameStateScored
	g.Winners = append([]string(nil), g.Team(winner)...)
	g.Losers = append([]string(nil), g.Team(3-winner)...)
	g.MVPs = idsFor(players, mvps)
	g.BedBreakers = idsFor(players, bedBreakers)
	g.Reason = req.Reason
	g.EndTime = now
	if err := m.games.SaveGame(scope.Ctx, g); err != nil {
		return result, fmt.Errorf("save scored game %d: %w", g.ID, err)
	}
	m.metrics.AddGameTransition(string(models.GameStateScored))

	m.refreshNicknames(scope, players)
	m.announceScore(scope, g, result)
	m.notifyServer(scope, gameserver.NewScoringSuccess(g.ID, ignsOf(players)))
	m.scheduleCleanup(scope, g)

	scope.Log.Infof("[game] game %d scored, team %d won, %d players updated", g.ID, winner, len(result.Changes))
	return result, nil
}

func (m *Manager) applyScore(ctx context.Context, g *models.Game, p *models.Player, o Outcome, brackets []models.RatingBracket, now time.Time) (PlayerChange, error) {
	change := PlayerChange{PlayerID: p.ID, IGN: p.IGN, Won: o.Won, MVP: o.MVP, BedBreak: o.BedBreak}

	entry := models.RecentGame{
		GameID:    g.ID,
		QueueID:   g.QueueID,
		Map:       g.Map,
		Date:      g.StartTime,
		StartTime: g.StartTime,
	}
	if idx := p.RecentGameIndex(g.ID); idx >= 0 {
		entry = p.RecentGames[idx]
		if entry.State == models.GameStateScored {
			change.RatingChange = entry.RatingChange
			change.Rating = p.Rating
			return change, nil
		}
	} else {
		p.Games++
	}

	applied, levelUp := applyOutcome(p, o, RatingDelta(brackets, p.Rating, o))
	change.RatingChange = applied
	change.Rating = p.Rating
	change.LevelUp = levelUp

	entry.Map = g.Map
	entry.RatingChange = applied
	entry.Stats = o.Stats
	entry.Won = o.Won
	entry.MVP = o.MVP
	entry.State = models.GameStateScored
	entry.EndTime = now
	p.PutRecentGame(entry, constants.RecentGamesCap)
	p.RecordDailyRating(now, constants.DailyRatingCap)

	return change, m.players.SavePlayer(ctx, p)
}

// winningTeam resolves the team by majority of the reported winning names,
// ties toward team 1. It falls back to the explicit team number when none of
// the names belong to the game.
func winningTeam(g *models.Game, byIGN map[string]*models.Player, req ScoreRequest) (int, error) {
	var team1, team2 int
	for _, ign := range req.WinningIGNs {
		p, ok := byIGN[strings.ToLower(ign)]
		if !ok {
			continue
		}
		switch g.TeamOf(p.ID) {
		case 1:
			team1++
		case 2:
			team2++
		}
	}
	switch {
	case team1+team2 == 0:
	case team2 > team1:
		return 2, nil
	default:
		return 1, nil
	}
	if req.WinningTeam == 1 || req.WinningTeam == 2 {
		return req.WinningTeam, nil
	}
	return 0, models.ErrInvalidWinningTeam
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}

func idsFor(players []*models.Player, igns map[string]bool) []string {
	var ids []string
	for _, p := range players {
		if igns[strings.ToLower(p.IGN)] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func ignsOf(players []*models.Player) []string {
	igns := make([]string, 0, len(players))
	for _, p := range players {
		igns = append(igns, p.IGN)
	}
	return igns
}
