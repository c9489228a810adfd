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

func (s *Store) FindParty(ctx context.Context, partyID string) (*models.Party, error) {
	var (
		p       models.Party
		members []byte
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, leader, members, max_members
  FROM parties
 WHERE id = $1
`, partyID).Scan(&p.ID, &p.Leader, &members, &p.MaxMembers)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("party %s: %w", partyID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &p.Members); err != nil {
		return nil, fmt.Errorf("decode members of party %s: %w", partyID, err)
	}
	return &p, nil
}

func (s *Store) SaveParty(ctx context.Context, party models.Party) error {
	members, err := json.Marshal(party.Members)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO parties (id, leader, members, max_members)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
  leader      = EXCLUDED.leader,
  members     = EXCLUDED.members,
  max_members = EXCLUDED.max_members
`, party.ID, party.Leader, members, party.MaxMembers)
	return err
}
