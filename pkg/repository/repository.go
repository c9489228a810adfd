// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package repository declares the persistent document store the coordinator
// reads and writes. Implementations live in the memory and postgres packages.
package repository

import (
	"context"
	"errors"

	"github.com/rbwleague/matchcoordinator/pkg/models"
)

var ErrNotFound = errors.New("document not found")

type QueueRepository interface {
	ActiveQueues(ctx context.Context) ([]models.Queue, error)
	// FindQueue returns ErrNotFound for unknown ids. Inactive queues are returned as stored.
	FindQueue(ctx context.Context, queueID string) (*models.Queue, error)
	SaveQueue(ctx context.Context, queue models.Queue) error
}

type PlayerRepository interface {
	FindPlayer(ctx context.Context, playerID string) (*models.Player, error)
	// FindPlayers returns the players that exist, in the order of ids. Unknown ids are skipped.
	FindPlayers(ctx context.Context, playerIDs []string) ([]*models.Player, error)
	// FindPlayerByIGN matches the in-game name case-insensitively.
	FindPlayerByIGN(ctx context.Context, ign string) (*models.Player, error)
	SavePlayer(ctx context.Context, player *models.Player) error
}

type PartyRepository interface {
	FindParty(ctx context.Context, partyID string) (*models.Party, error)
	SaveParty(ctx context.Context, party models.Party) error
}

type GameRepository interface {
	CreateGame(ctx context.Context, game *models.Game) error
	FindGame(ctx context.Context, gameID int) (*models.Game, error)
	SaveGame(ctx context.Context, game *models.Game) error
	// LastGameID returns the highest stored game id, 0 when there are none.
	LastGameID(ctx context.Context) (int, error)
}

type RatingRepository interface {
	RatingBrackets(ctx context.Context) ([]models.RatingBracket, error)
}

// Store bundles every repository. Both implementations satisfy it.
type Store interface {
	QueueRepository
	PlayerRepository
	PartyRepository
	GameRepository
	RatingRepository
}
