// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

func (s *Store) CreateGame(ctx context.Context, game *models.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game %d: %w", game.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO games (id, state, queue_id, document)
VALUES ($1,$2,$3,$4)
`, game.ID, string(game.State), game.QueueID, doc)
	return err
}

func (s *Store) FindGame(ctx context.Context, gameID int) (*models.Game, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM games WHERE id = $1`, gameID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %d: %w", gameID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	g := &models.Game{}
	if err := json.Unmarshal(doc, g); err != nil {
		return nil, fmt.Errorf("decode game %d: %w", gameID, err)
	}
	return g, nil
}

func (s *Store) SaveGame(ctx context.Context, game *models.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game %d: %w", game.ID, err)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE games
   SET state = $2, queue_id = $3, document = $4, updated_at = now()
 WHERE id = $1
`, game.ID, string(game.State), game.QueueID, doc)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("game %d: %w", game.ID, repository.ErrNotFound)
	}
	return nil
}

func (s *Store) LastGameID(ctx context.Context) (int, error) {
	var last int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM games`).Scan(&last)
	return last, err
}
