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

const queueColumns = `id, capacity, rating_min, rating_max, ranked, mode, active, bypass_roles`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueue(row rowScanner) (models.Queue, error) {
	var (
		q     models.Queue
		mode  string
		roles []byte
	)
	if err := row.Scan(&q.ID, &q.Capacity, &q.RatingMin, &q.RatingMax, &q.Ranked, &mode, &q.Active, &roles); err != nil {
		return q, err
	}
	q.Mode = models.QueueMode(mode)
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &q.BypassRoles); err != nil {
			return q, fmt.Errorf("decode bypass roles of queue %s: %w", q.ID, err)
		}
	}
	return q, nil
}

func (s *Store) ActiveQueues(ctx context.Context) ([]models.Queue, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+queueColumns+`
  FROM queues
 WHERE active
 ORDER BY id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Queue
	for rows.Next() {
		q, err := scanQueue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) FindQueue(ctx context.Context, queueID string) (*models.Queue, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+queueColumns+`
  FROM queues
 WHERE id = $1
`, queueID)
	q, err := scanQueue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue %s: %w", queueID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Store) SaveQueue(ctx context.Context, q models.Queue) error {
	if err := q.Validate(); err != nil {
		return err
	}
	roles, err := json.Marshal(q.BypassRoles)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO queues (id, capacity, rating_min, rating_max, ranked, mode, active, bypass_roles)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  capacity     = EXCLUDED.capacity,
  rating_min   = EXCLUDED.rating_min,
  rating_max   = EXCLUDED.rating_max,
  ranked       = EXCLUDED.ranked,
  mode         = EXCLUDED.mode,
  active       = EXCLUDED.active,
  bypass_roles = EXCLUDED.bypass_roles
`, q.ID, q.Capacity, q.RatingMin, q.RatingMax, q.Ranked, string(q.Mode), q.Active, roles)
	return err
}
