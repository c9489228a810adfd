// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"fmt"
	"sort"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/balance"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/game"
	"github.com/rbwleague/matchcoordinator/pkg/metrics"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

// RandomComposer splits the first capacity players of the queue into two
// rating-balanced teams, keeping parties together when it can.
type RandomComposer struct {
	players repository.PlayerRepository
	creator GameCreator
	maps    MapPicker
	metrics metrics.CoordinatorMetrics
	pacing  time.Duration
}

func NewRandomComposer(players repository.PlayerRepository, creator GameCreator, maps MapPicker, m metrics.CoordinatorMetrics) *RandomComposer {
	return &RandomComposer{
		players: players,
		creator: creator,
		maps:    maps,
		metrics: m,
		pacing:  constants.GamePacingDelay,
	}
}

// SetPacing changes the delay between two games of the same pass.
func (r *RandomComposer) SetPacing(d time.Duration) {
	r.pacing = d
}

func (r *RandomComposer) Compose(scope *envelope.Scope, players []string, queue models.Queue, maxGames int) (Outcome, error) {
	var out Outcome
	if queue.Capacity < 2 {
		return out, models.ErrQueueCapacity
	}

	remaining, err := loadCandidates(scope.Ctx, r.players, players)
	if err != nil {
		return out, fmt.Errorf("load candidates: %w", err)
	}

	for out.GamesCreated < maxGames && len(remaining) >= queue.Capacity {
		if out.GamesCreated > 0 {
			if err := asyncutil.Sleep(scope.Ctx, r.pacing); err != nil {
				return out, err
			}
		}

		group, ok := selectGroup(remaining, queue.Capacity)
		if !ok {
			scope.Log.Debugf("[composer] queue %s: parties leave no complete group of %d", queue.ID, queue.Capacity)
			break
		}

		created, err := r.createGame(scope, group, queue)
		if created != nil {
			out.add(created.ID, created.Players())
			remaining = without(remaining, group)
		}
		if err != nil {
			return out, err
		}
	}

	if out.GamesCreated > 0 {
		r.metrics.AddGamesCreated(queue.ID, string(models.QueueModeRandom), out.GamesCreated)
	}
	return out, nil
}

func (r *RandomComposer) createGame(scope *envelope.Scope, group []candidate, queue models.Queue) (*models.Game, error) {
	team1, team2 := r.split(scope, group, queue)

	gameID, err := r.creator.NextGameID(scope.Ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate game id: %w", err)
	}
	mapName := r.maps.Select(scope, queue.Capacity)

	created, err := r.creator.CreateGame(scope, game.GameSpec{
		ID:      gameID,
		QueueID: queue.ID,
		Map:     mapName,
		Ranked:  queue.Ranked,
		Team1:   team1,
		Team2:   team2,
		Parties: partiesIn(group),
	})
	if err != nil {
		return nil, fmt.Errorf("create game %d: %w", gameID, err)
	}
	scope.Log.Infof("[composer] game %d created on %s for queue %s", gameID, mapName, queue.ID)

	if err := r.creator.InitiateWarp(scope, created.ID); err != nil {
		return created, fmt.Errorf("warp game %d: %w", created.ID, err)
	}
	return created, nil
}

// split balances party units first. When parties make an even split
// impossible every player is balanced individually.
func (r *RandomComposer) split(scope *envelope.Scope, group []candidate, queue models.Queue) ([]string, []string) {
	size := teamCap(queue.Capacity)

	result, err := balance.TwoTeams(scope.Ctx, toUnits(groupUnits(group, size)), size)
	if err == nil {
		return result.Team1, result.Team2
	}
	scope.Log.WithError(err).Warnf("[composer] queue %s: party split failed, balancing players individually", queue.ID)

	solos := make([][]candidate, len(group))
	for i, c := range group {
		solos[i] = []candidate{c}
	}
	result, err = balance.TwoTeams(scope.Ctx, toUnits(solos), size)
	if err == nil {
		return result.Team1, result.Team2
	}
	return snakeSplit(group)
}

// snakeSplit deals players sorted by rating as 1,2,2,1,1,2,...
func snakeSplit(group []candidate) ([]string, []string) {
	sorted := make([]candidate, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].rating > sorted[j].rating })

	var team1, team2 []string
	for i, c := range sorted {
		if firstCaptainPicks(i) {
			team1 = append(team1, c.id)
		} else {
			team2 = append(team2, c.id)
		}
	}
	return team1, team2
}
