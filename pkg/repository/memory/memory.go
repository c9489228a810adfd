// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package memory is an in-process repository.Store. Documents are deep
// copied on the way in and out, so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/copystructure"

	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

type Store struct {
	mu       sync.RWMutex
	queues   map[string]models.Queue
	players  map[string]*models.Player
	parties  map[string]models.Party
	games    map[int]*models.Game
	brackets []models.RatingBracket
}

var _ repository.Store = (*Store)(nil)

func NewStore(brackets []models.RatingBracket) *Store {
	sorted := make([]models.RatingBracket, len(brackets))
	copy(sorted, brackets)
	models.SortBrackets(sorted)

	return &Store{
		queues:   make(map[string]models.Queue),
		players:  make(map[string]*models.Player),
		parties:  make(map[string]models.Party),
		games:    make(map[int]*models.Game),
		brackets: sorted,
	}
}

func deepCopy[T any](v T) (T, error) {
	out, err := copystructure.Copy(v)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("copy %T: %w", v, err)
	}
	return out.(T), nil
}

func (s *Store) ActiveQueues(_ context.Context) ([]models.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Queue, 0, len(s.queues))
	for _, q := range s.queues {
		if !q.Active {
			continue
		}
		c, err := deepCopy(q)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FindQueue(_ context.Context, queueID string) (*models.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.queues[queueID]
	if !ok {
		return nil, fmt.Errorf("queue %s: %w", queueID, repository.ErrNotFound)
	}
	c, err := deepCopy(q)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveQueue(_ context.Context, queue models.Queue) error {
	if err := queue.Validate(); err != nil {
		return err
	}
	c, err := deepCopy(queue)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[queue.ID] = c
	return nil
}

func (s *Store) FindPlayer(_ context.Context, playerID string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, repository.ErrNotFound)
	}
	return deepCopy(p)
}

func (s *Store) FindPlayers(_ context.Context, playerIDs []string) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, ok := s.players[id]
		if !ok {
			continue
		}
		c, err := deepCopy(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) FindPlayerByIGN(_ context.Context, ign string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.players {
		if p.IGN != "" && strings.EqualFold(p.IGN, ign) {
			return deepCopy(p)
		}
	}
	return nil, fmt.Errorf("player with ign %s: %w", ign, repository.ErrNotFound)
}

func (s *Store) SavePlayer(_ context.Context, player *models.Player) error {
	if player == nil || player.ID == "" {
		return fmt.Errorf("save player: missing id")
	}
	c, err := deepCopy(player)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = c
	return nil
}

func (s *Store) FindParty(_ context.Context, partyID string) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parties[partyID]
	if !ok {
		return nil, fmt.Errorf("party %s: %w", partyID, repository.ErrNotFound)
	}
	c, err := deepCopy(p)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveParty(_ context.Context, party models.Party) error {
	c, err := deepCopy(party)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[party.ID] = c
	return nil
}

func (s *Store) CreateGame(_ context.Context, game *models.Game) error {
	c, err := deepCopy(game)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.ID]; exists {
		return fmt.Errorf("game %d already exists", game.ID)
	}
	s.games[game.ID] = c
	return nil
}

func (s *Store) FindGame(_ context.Context, gameID int) (*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("game %d: %w", gameID, repository.ErrNotFound)
	}
	return deepCopy(g)
}

func (s *Store) SaveGame(_ context.Context, game *models.Game) error {
	c, err := deepCopy(game)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.ID]; !exists {
		return fmt.Errorf("game %d: %w", game.ID, repository.ErrNotFound)
	}
	s.games[game.ID] = c
	return nil
}

func (s *Store) LastGameID(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last := 0
	for id := range s.games {
		if id > last {
			last = id
		}
	}
	return last, nil
}

func (s *Store) RatingBrackets(_ context.Context) ([]models.RatingBracket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.RatingBracket, len(s.brackets))
	copy(out, s.brackets)
	return out, nil
}
