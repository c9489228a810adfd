// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package game owns the lifecycle of a match: provisioning, warping players
// to the game server, and the score and void transactions that move a game
// from pending to scored or voided.
package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
	"github.com/rbwleague/matchcoordinator/pkg/guildops"
	"github.com/rbwleague/matchcoordinator/pkg/mathutil"
	"github.com/rbwleague/matchcoordinator/pkg/metrics"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

var ErrInvalidGameSpec = errors.New("game needs an id and two teams")

// GameSpec describes a game to provision. Picking channels are set when the
// teams came out of a draft.
type GameSpec struct {
	ID           int
	QueueID      string
	Map          string
	Ranked       bool
	Team1        []string
	Team2        []string
	Parties      [][]string
	PickingText  string
	PickingVoice string
}

type Deps struct {
	Games   repository.GameRepository
	Players repository.PlayerRepository
	Ratings repository.RatingRepository
	Guild   guildops.Operations
	Server  gameserver.Channel
	Metrics metrics.CoordinatorMetrics
	// ScoringChannelID receives score and void summaries; optional.
	ScoringChannelID string
}

type Timings struct {
	WarpTimeout    time.Duration
	WarpRetryDelay time.Duration
	MaxWarpRetries int
	CleanupDelay   time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		WarpTimeout:    constants.WarpTimeout,
		WarpRetryDelay: constants.WarpRetryDelay,
		MaxWarpRetries: constants.MaxWarpRetries,
		CleanupDelay:   constants.ResourceCleanupDelay,
	}
}

type Manager struct {
	games          repository.GameRepository
	players        repository.PlayerRepository
	ratings        repository.RatingRepository
	guild          guildops.Operations
	server         gameserver.Channel
	metrics        metrics.CoordinatorMetrics
	scoringChannel string

	timings Timings
	now     func() time.Time

	mu       sync.Mutex
	active   map[int]*models.Game
	warps    map[int]*warpRequest
	cleanups map[int]*time.Timer
	lastID   int

	gameLocks sync.Map
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		games:          deps.Games,
		players:        deps.Players,
		ratings:        deps.Ratings,
		guild:          deps.Guild,
		server:         deps.Server,
		metrics:        deps.Metrics,
		scoringChannel: deps.ScoringChannelID,
		timings:        DefaultTimings(),
		now:            time.Now,
		active:         make(map[int]*models.Game),
		warps:          make(map[int]*warpRequest),
		cleanups:       make(map[int]*time.Timer),
	}
}

func (m *Manager) SetTimings(t Timings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings = t
}

// SetClock replaces the wall clock used for game timestamps.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Manager) clock() time.Time {
	m.mu.Lock()
	now := m.now
	m.mu.Unlock()
	return now()
}

func (m *Manager) timing() Timings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timings
}

// lockGame serializes score, void and warp handling of one game.
func (m *Manager) lockGame(gameID int) func() {
	v, _ := m.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// NextGameID allocates a game id greater than every stored and every
// previously allocated id.
func (m *Manager) NextGameID(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, err := m.games.LastGameID(ctx)
	if err != nil {
		return 0, fmt.Errorf("read last game id: %w", err)
	}
	m.lastID = mathutil.Max(m.lastID, last) + 1
	return m.lastID, nil
}

func (m *Manager) ActiveGameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *Manager) IsGameActive(gameID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[gameID]
	return ok
}

// ActiveGameIDs lists the games that have not been scored or voided yet.
func (m *Manager) ActiveGameIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (m *Manager) activeGame(gameID int) (models.Game, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.active[gameID]
	if !ok {
		return models.Game{}, false
	}
	return *g, true
}

// CreateGame provisions the channels, stores the pending game, marks every
// player as in a pending game and moves them to their team's voice channel.
func (m *Manager) CreateGame(scope *envelope.Scope, spec GameSpec) (*models.Game, error) {
	g := &models.Game{
		ID:      spec.ID,
		Map:     spec.Map,
		Team1:   append([]string(nil), spec.Team1...),
		Team2:   append([]string(nil), spec.Team2...),
		State:   models.GameStatePending,
		QueueID: spec.QueueID,
		Ranked:  spec.Ranked,
		Parties: spec.Parties,
		Channels: models.GameChannels{
			PickingText:  spec.PickingText,
			PickingVoice: spec.PickingVoice,
		},
		StartTime: m.clock(),
	}
	if spec.ID <= 0 {
		return nil, ErrInvalidGameSpec
	}
	if err := g.ValidateTeams(); err != nil {
		return nil, err
	}
	scope.SetAttributes(envelope.GameIDTag, g.ID)
	scope.SetAttributes(envelope.TeamMembersTag, g.Players())

	if err := m.createChannels(scope, g); err != nil {
		return nil, err
	}
	if err := m.games.CreateGame(scope.Ctx, g); err != nil {
		m.deleteChannels(scope, []string{g.Channels.Text, g.Channels.Team1Voice, g.Channels.Team2Voice})
		return nil, fmt.Errorf("store game %d: %w", g.ID, err)
	}

	m.markPending(scope, g)

	m.mu.Lock()
	active := *g
	m.active[g.ID] = &active
	count := len(m.active)
	m.mu.Unlock()
	m.metrics.SetActiveGames(count)
	m.metrics.AddGameTransition(string(models.GameStatePending))

	m.movePlayers(scope, g)
	m.post(scope, g.Channels.Text, fmt.Sprintf("Game #%d on %s\nTeam 1: %s\nTeam 2: %s", g.ID, g.Map, mentions(g.Team1), mentions(g.Team2)))

	scope.Log.Infof("[game] game %d created with %d players", g.ID, len(g.Players()))
	return g, nil
}

func (m *Manager) createChannels(scope *envelope.Scope, g *models.Game) error {
	text, err := m.guild.CreateChannel(scope.Ctx, guildops.ChannelSpec{
		Name:         fmt.Sprintf("game-%d", g.ID),
		Kind:         guildops.ChannelText,
		AllowedUsers: g.Players(),
	}, constants.GuildPriorityTextChannel)
	if err != nil {
		return fmt.Errorf("create text channel: %w", err)
	}
	g.Channels.Text = text

	created := []string{text}
	for team, players := range [][]string{g.Team1, g.Team2} {
		id, err := m.guild.CreateChannel(scope.Ctx, guildops.ChannelSpec{
			Name:         fmt.Sprintf("Game #%d Team %d", g.ID, team+1),
			Kind:         guildops.ChannelVoice,
			AllowedUsers: players,
		}, constants.GuildPriorityVoiceChannel)
		if err != nil {
			m.deleteChannels(scope, created)
			return fmt.Errorf("create team %d voice channel: %w", team+1, err)
		}
		created = append(created, id)
		if team == 0 {
			g.Channels.Team1Voice = id
		} else {
			g.Channels.Team2Voice = id
		}
	}
	return nil
}

// markPending bumps the game count and adds a pending history entry per player.
func (m *Manager) markPending(scope *envelope.Scope, g *models.Game) {
	summary := asyncutil.SettleAll(scope.Ctx, constants.PlayerFanOutLimit, g.Players(), func(ctx context.Context, id string) (struct{}, error) {
		p, err := m.players.FindPlayer(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		p.Games++
		p.PutRecentGame(models.RecentGame{
			GameID:    g.ID,
			QueueID:   g.QueueID,
			Map:       g.Map,
			State:     models.GameStatePending,
			Date:      g.StartTime,
			StartTime: g.StartTime,
		}, constants.RecentGamesCap)
		return struct{}{}, m.players.SavePlayer(ctx, p)
	})
	if summary.Failed > 0 {
		scope.Log.WithError(summary.Err()).Warnf("[game] game %d: %d players not marked pending", g.ID, summary.Failed)
	}
}

func (m *Manager) movePlayers(scope *envelope.Scope, g *models.Game) {
	type move struct{ player, channel string }
	var moves []move
	for _, id := range g.Team1 {
		moves = append(moves, move{id, g.Channels.Team1Voice})
	}
	for _, id := range g.Team2 {
		moves = append(moves, move{id, g.Channels.Team2Voice})
	}
	summary := asyncutil.SettleAll(scope.Ctx, constants.PlayerFanOutLimit, moves, func(ctx context.Context, mv move) (struct{}, error) {
		return struct{}{}, m.guild.MovePlayer(ctx, mv.player, mv.channel, constants.GuildPriorityMove)
	})
	if summary.Failed > 0 {
		scope.Log.WithError(summary.Err()).Debugf("[game] game %d: %d players not moved", g.ID, summary.Failed)
	}
}

// UpdateGameMap changes the map of a stored game.
func (m *Manager) UpdateGameMap(scope *envelope.Scope, gameID int, mapName string) error {
	unlock := m.lockGame(gameID)
	defer unlock()

	g, err := m.findGame(scope.Ctx, gameID)
	if err != nil {
		return err
	}
	g.Map = mapName
	if err := m.games.SaveGame(scope.Ctx, g); err != nil {
		return fmt.Errorf("save game %d: %w", gameID, err)
	}

	m.mu.Lock()
	if active, ok := m.active[gameID]; ok {
		active.Map = mapName
	}
	m.mu.Unlock()
	scope.Log.Infof("[game] game %d map set to %s", gameID, mapName)
	return nil
}

func (m *Manager) findGame(ctx context.Context, gameID int) (*models.Game, error) {
	g, err := m.games.FindGame(ctx, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("game %d: %w", gameID, models.ErrGameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %d: %w", gameID, err)
	}
	return g, nil
}

// Close stops every pending warp and cleanup timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, w := range m.warps {
		w.stop()
		delete(m.warps, id)
	}
	for id, t := range m.cleanups {
		t.Stop()
		delete(m.cleanups, id)
	}
}

func mentions(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "<@" + id + ">"
	}
	return strings.Join(parts, " ")
}

func (m *Manager) post(scope *envelope.Scope, channelID, content string) {
	if channelID == "" {
		return
	}
	if err := m.guild.SendMessage(scope.Ctx, channelID, content, constants.GuildPriorityMessage); err != nil {
		scope.Log.WithError(err).Debugf("[game] message to %s not sent", channelID)
	}
}
