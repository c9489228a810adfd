// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package postgres

import (
	"context"

	"github.com/rbwleague/matchcoordinator/pkg/models"
)

func (s *Store) RatingBrackets(ctx context.Context) ([]models.RatingBracket, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, start_rating, end_rating, win, loss, mvp, bed_break
  FROM rating_brackets
 ORDER BY start_rating ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RatingBracket
	for rows.Next() {
		var b models.RatingBracket
		if err := rows.Scan(&b.Name, &b.Start, &b.End, &b.Win, &b.Loss, &b.MVP, &b.BedBreak); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SeedRatingBrackets inserts brackets that are not stored yet, keeping existing rows.
func (s *Store) SeedRatingBrackets(ctx context.Context, brackets []models.RatingBracket) error {
	for _, b := range brackets {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO rating_brackets (name, start_rating, end_rating, win, loss, mvp, bed_break)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (name) DO NOTHING
`, b.Name, b.Start, b.End, b.Win, b.Loss, b.MVP, b.BedBreak)
		if err != nil {
			return err
		}
	}
	return nil
}
