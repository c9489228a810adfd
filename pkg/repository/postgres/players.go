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

func decodePlayer(doc []byte) (*models.Player, error) {
	p := &models.Player{}
	if err := json.Unmarshal(doc, p); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return p, nil
}

func (s *Store) FindPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM players WHERE id = $1`, playerID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", playerID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodePlayer(doc)
}

func (s *Store) FindPlayers(ctx context.Context, playerIDs []string) ([]*models.Player, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}
	ids, err := json.Marshal(playerIDs)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, document
  FROM players
 WHERE id IN (SELECT jsonb_array_elements_text($1::jsonb))
`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Player, len(playerIDs))
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		p, err := decodePlayer(doc)
		if err != nil {
			return nil, err
		}
		byID[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Player, 0, len(byID))
	for _, id := range playerIDs {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) FindPlayerByIGN(ctx context.Context, ign string) (*models.Player, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `
SELECT document
  FROM players
 WHERE lower(ign) = lower($1) AND ign <> ''
 LIMIT 1
`, ign).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player with ign %s: %w", ign, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodePlayer(doc)
}

func (s *Store) SavePlayer(ctx context.Context, player *models.Player) error {
	if player == nil || player.ID == "" {
		return fmt.Errorf("save player: missing id")
	}
	doc, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("encode player %s: %w", player.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO players (id, ign, document)
VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET
  ign        = EXCLUDED.ign,
  document   = EXCLUDED.document,
  updated_at = now()
`, player.ID, player.IGN, doc)
	return err
}
