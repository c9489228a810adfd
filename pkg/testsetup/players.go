// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

// PlayerFactory generates registered players with unique ids and names.
type PlayerFactory struct {
	faker *gofakeit.Faker
	count int
}

func NewPlayerFactory(seed int64) *PlayerFactory {
	return &PlayerFactory{faker: gofakeit.New(uint64(seed))}
}

func (f *PlayerFactory) Player(rating int) *models.Player {
	f.count++
	return &models.Player{
		ID:     fmt.Sprintf("%s%03d", f.faker.Numerify("##############"), f.count),
		IGN:    fmt.Sprintf("%s%d", f.faker.Username(), f.count),
		Rating: rating,
		Level:  1,
	}
}

// Players returns n players with ratings drawn from [ratingMin, ratingMax].
func (f *PlayerFactory) Players(n, ratingMin, ratingMax int) []*models.Player {
	out := make([]*models.Player, n)
	for i := range out {
		out[i] = f.Player(f.faker.IntRange(ratingMin, ratingMax))
	}
	return out
}

// SavePlayers stores players and returns their ids in order.
func SavePlayers(t *testing.T, repo repository.PlayerRepository, players ...*models.Player) []string {
	t.Helper()
	ids := make([]string, len(players))
	for i, p := range players {
		if err := repo.SavePlayer(context.Background(), p); err != nil {
			t.Fatalf("save player %s: %v", p.ID, err)
		}
		ids[i] = p.ID
	}
	return ids
}
