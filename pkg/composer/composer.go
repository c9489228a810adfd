// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package composer turns a list of validated players into games, either by a
// rating-balanced random split or by an interactive captain draft.
package composer

import (
	"context"
	"errors"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/game"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

var (
	ErrNotEnoughPlayers = errors.New("not enough players to form a game")
	ErrDraftCancelled   = errors.New("draft cancelled")
	ErrNoCaptains       = errors.New("could not select two captains")
)

// Outcome reports what a Compose pass did. Consumed lists every player that
// left the queue, in the order they were taken.
type Outcome struct {
	GamesCreated int
	GameIDs      []int
	Consumed     []string
}

func (o *Outcome) add(gameID int, players []string) {
	o.GamesCreated++
	o.GameIDs = append(o.GameIDs, gameID)
	o.Consumed = append(o.Consumed, players...)
}

// Composer forms up to maxGames games out of players. On a failed step it
// stops and returns the games made so far together with the error.
type Composer interface {
	Compose(scope *envelope.Scope, players []string, queue models.Queue, maxGames int) (Outcome, error)
}

// GameCreator provisions and starts games; implemented by game.Manager.
type GameCreator interface {
	NextGameID(ctx context.Context) (int, error)
	CreateGame(scope *envelope.Scope, spec game.GameSpec) (*models.Game, error)
	InitiateWarp(scope *envelope.Scope, gameID int) error
}

type MapPicker interface {
	Select(scope *envelope.Scope, capacity int) string
}

// Requeuer puts players back into a queue, e.g. after a failed draft.
type Requeuer interface {
	Join(queueID, playerID string) bool
}
