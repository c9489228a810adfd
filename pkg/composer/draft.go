// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/asyncutil"
	"github.com/rbwleague/matchcoordinator/pkg/common"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/game"
	"github.com/rbwleague/matchcoordinator/pkg/guildops"
	"github.com/rbwleague/matchcoordinator/pkg/metrics"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

// DraftComposer runs a captain draft for every game. Compose reserves the
// players and starts the drafts; each draft then runs on its own until the
// teams are picked, the session times out or it is cancelled.
type DraftComposer struct {
	players  repository.PlayerRepository
	parties  repository.PartyRepository
	guild    guildops.Operations
	picks    guildops.PickSource
	creator  GameCreator
	maps     MapPicker
	requeue  Requeuer
	metrics  metrics.CoordinatorMetrics
	Sessions *Sessions

	pickTimeout time.Duration
	pacing      time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	running sync.WaitGroup
}

type DraftDeps struct {
	Players repository.PlayerRepository
	Parties repository.PartyRepository
	Guild   guildops.Operations
	Picks   guildops.PickSource
	Creator GameCreator
	Maps    MapPicker
	Requeue Requeuer
	Metrics metrics.CoordinatorMetrics
}

func NewDraftComposer(deps DraftDeps) *DraftComposer {
	return &DraftComposer{
		players:     deps.Players,
		parties:     deps.Parties,
		guild:       deps.Guild,
		picks:       deps.Picks,
		creator:     deps.Creator,
		maps:        deps.Maps,
		requeue:     deps.Requeue,
		metrics:     deps.Metrics,
		Sessions:    NewSessions(),
		pickTimeout: constants.PickTimeout,
		pacing:      constants.GamePacingDelay,
		rng:         common.NewRand(),
	}
}

func (d *DraftComposer) SetPickTimeout(timeout time.Duration) {
	d.pickTimeout = timeout
}

func (d *DraftComposer) SetPacing(pacing time.Duration) {
	d.pacing = pacing
}

// Wait blocks until every started draft has finished.
func (d *DraftComposer) Wait() {
	d.running.Wait()
}

// Cleanup cancels all drafts in progress and waits for them to unwind.
func (d *DraftComposer) Cleanup() {
	if n := d.Sessions.Cleanup(); n > 0 {
		envelope.NewRootScope(context.Background(), "draftCleanup", "").Log.Infof("[draft] cancelled %d drafts", n)
	}
	d.running.Wait()
}

func (d *DraftComposer) Compose(scope *envelope.Scope, players []string, queue models.Queue, maxGames int) (Outcome, error) {
	var out Outcome
	if queue.Capacity < 2 {
		return out, models.ErrQueueCapacity
	}

	remaining, err := loadCandidates(scope.Ctx, d.players, players)
	if err != nil {
		return out, fmt.Errorf("load candidates: %w", err)
	}

	for out.GamesCreated < maxGames && len(remaining) >= queue.Capacity {
		if out.GamesCreated > 0 {
			if err := asyncutil.Sleep(scope.Ctx, d.pacing); err != nil {
				return out, err
			}
		}

		group, ok := selectGroup(remaining, queue.Capacity)
		if !ok {
			break
		}
		gameID, err := d.creator.NextGameID(scope.Ctx)
		if err != nil {
			return out, fmt.Errorf("allocate game id: %w", err)
		}

		d.running.Add(1)
		draftScope := envelope.NewRootScope(context.WithoutCancel(scope.Ctx), "draft", scope.TraceID).
			WithField("gameID", gameID)
		go func() {
			defer d.running.Done()
			defer draftScope.Finish()
			if _, err := d.Draft(draftScope, gameID, ids(group), queue); err != nil {
				d.returnPlayers(draftScope, queue.ID, ids(group))
			}
		}()

		out.add(gameID, ids(group))
		remaining = without(remaining, group)
	}
	return out, nil
}

func (d *DraftComposer) returnPlayers(scope *envelope.Scope, queueID string, players []string) {
	if d.requeue == nil {
		return
	}
	returned := 0
	for _, id := range players {
		if d.requeue.Join(queueID, id) {
			returned++
		}
	}
	scope.Log.Infof("[draft] returned %d players to queue %s", returned, queueID)
}

// DraftResult is a finished draft that became a game.
type DraftResult struct {
	Game         *models.Game
	Captains     [2]string
	Verification VerificationOutcome
}

// Draft runs one captain draft over players and creates the game. On any
// failure the picking channels are removed and no game is created.
func (d *DraftComposer) Draft(scope *envelope.Scope, gameID int, players []string, queue models.Queue) (DraftResult, error) {
	var result DraftResult

	cands, err := loadCandidates(scope.Ctx, d.players, players)
	if err != nil {
		return result, fmt.Errorf("load candidates: %w", err)
	}
	if len(cands) < 2 {
		return result, ErrNotEnoughPlayers
	}
	parties := d.partiesOf(scope, cands)

	d.rngMu.Lock()
	captains, err := selectCaptains(cands, parties, d.rng)
	d.rngMu.Unlock()
	if err != nil {
		return result, err
	}
	result.Captains = captains
	scope.Log.Infof("[draft] game %d captains %s and %s, %d parties", gameID, captains[0], captains[1], len(parties))

	mapName := d.maps.Select(scope, queue.Capacity)
	picking, err := d.createPickingChannels(scope, gameID, ids(cands))
	if err != nil {
		d.metrics.AddDraftOutcome("voided")
		return result, err
	}

	state := newSessionState(gameID, queue, cands, parties, captains)
	sess, sessionCtx := d.Sessions.start(scope.Ctx, state)
	defer d.Sessions.finish(sess)

	d.movePlayers(scope, ids(cands), picking.PickingVoice)
	d.announce(scope, picking.PickingText, fmt.Sprintf("Game #%d draft on %s: captains <@%s> and <@%s>", gameID, mapName, captains[0], captains[1]))

	if err := d.runPicks(scope.WithContext(sessionCtx), sess, picking.PickingText, cands); err != nil {
		scope.Log.WithError(err).Warnf("[draft] game %d voided during picking", gameID)
		d.announce(scope, picking.PickingText, "The draft was cancelled due to a timeout or an error.")
		d.deleteChannels(scope, picking.All())
		d.metrics.AddDraftOutcome("voided")
		return result, err
	}

	outcome := VerifyTeams(sess.snapshot())
	result.Verification = outcome
	d.metrics.AddDraftOutcome(outcome.Kind.String())
	if outcome.Kind != Verified {
		scope.Log.Warnf("[draft] game %d teams %s: %v", gameID, outcome.Kind, outcome.Issues)
	}

	created, err := d.creator.CreateGame(scope, game.GameSpec{
		ID:           gameID,
		QueueID:      queue.ID,
		Map:          mapName,
		Ranked:       queue.Ranked,
		Team1:        outcome.Team1,
		Team2:        outcome.Team2,
		Parties:      draftParties(parties),
		PickingText:  picking.PickingText,
		PickingVoice: picking.PickingVoice,
	})
	if err != nil {
		d.deleteChannels(scope, picking.All())
		return result, fmt.Errorf("create game %d: %w", gameID, err)
	}
	result.Game = created
	d.metrics.AddGamesCreated(queue.ID, string(models.QueueModeDraft), 1)

	if err := d.creator.InitiateWarp(scope, gameID); err != nil {
		scope.Log.WithError(err).Errorf("[draft] game %d created but warp could not be sent", gameID)
	}
	return result, nil
}

func newSessionState(gameID int, queue models.Queue, cands []candidate, parties []partyGroup, captains [2]string) SessionState {
	state := SessionState{
		GameID:     gameID,
		QueueID:    queue.ID,
		Captains:   captains,
		Candidates: ids(cands),
		Team1:      []string{captains[0]},
		Team2:      []string{captains[1]},
		TeamSize:   teamCap(len(cands)),
		Parties:    make(map[string][]string, len(parties)),
	}
	for _, p := range parties {
		state.Parties[p.ID] = append([]string(nil), p.Members...)
		state.PartyOrder = append(state.PartyOrder, p.ID)
	}

	// members of a captain's party join that captain before picking starts;
	// a party holding both captains is already split and is drafted normally
	for _, party := range captainParties(captains, parties) {
		if party == nil || (party.has(captains[0]) && party.has(captains[1])) {
			continue
		}
		team := 1
		if party.has(captains[1]) {
			team = 2
		}
		for _, m := range party.Members {
			if m == captains[0] || m == captains[1] {
				continue
			}
			if team == 1 {
				state.Team1 = append(state.Team1, m)
			} else {
				state.Team2 = append(state.Team2, m)
			}
		}
	}

	placed := make(map[string]bool)
	for _, id := range append(append([]string(nil), state.Team1...), state.Team2...) {
		placed[id] = true
	}
	for _, c := range cands {
		if !placed[c.id] {
			state.Remaining = append(state.Remaining, c.id)
		}
	}
	state.CurrentPicker = state.nextPicker()
	return state
}

func draftParties(parties []partyGroup) [][]string {
	out := make([][]string, len(parties))
	for i, p := range parties {
		out[i] = append([]string(nil), p.Members...)
	}
	return out
}

// partiesOf loads the parties of the candidates and keeps those with at
// least two members in this draft, first member first.
func (d *DraftComposer) partiesOf(scope *envelope.Scope, cands []candidate) []partyGroup {
	present := make(map[string]bool, len(cands))
	for _, c := range cands {
		present[c.id] = true
	}

	var out []partyGroup
	seen := make(map[string]bool)
	for _, c := range cands {
		if c.partyID == "" || seen[c.partyID] {
			continue
		}
		seen[c.partyID] = true

		party, err := d.parties.FindParty(scope.Ctx, c.partyID)
		if err != nil {
			scope.Log.WithError(err).Debugf("[draft] party %s not loaded", c.partyID)
			continue
		}
		var members []string
		for _, m := range party.Members {
			if present[m] {
				members = append(members, m)
			}
		}
		if len(members) >= 2 {
			out = append(out, partyGroup{ID: party.ID, Members: members})
		}
	}
	return out
}

func (d *DraftComposer) runPicks(scope *envelope.Scope, sess *session, channelID string, cands []candidate) error {
	labels := make(map[string]string, len(cands))
	for _, c := range cands {
		labels[c.id] = c.label()
	}

	for {
		state := sess.snapshot()
		if !state.Active {
			return ErrDraftCancelled
		}
		if err := scope.Ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrDraftCancelled, err)
		}
		if len(state.Remaining) == 0 {
			return nil
		}

		// a full team or a single player left needs no prompt
		if auto, team, ok := distributeRemainder(state); ok {
			sess.update(func(st *SessionState) {
				st.place(auto, team)
				st.PickCount++
				st.CurrentPicker = st.nextPicker()
			})
			continue
		}

		picked, err := d.awaitPick(scope, sess, state, channelID, labels)
		if err != nil {
			return err
		}
		sess.update(func(st *SessionState) {
			st.place(picked, st.captainTeam(st.CurrentPicker))
			st.PickCount++
			st.CurrentPicker = st.nextPicker()
		})
	}
}

// distributeRemainder returns the next player to place without asking a
// captain: when one team is full or only one player is left.
func distributeRemainder(state SessionState) (string, int, bool) {
	if len(state.Remaining) == 0 {
		return "", 0, false
	}
	next := state.Remaining[0]
	switch {
	case state.TeamSize > 0 && len(state.Team1) >= state.TeamSize:
		return next, 2, true
	case state.TeamSize > 0 && len(state.Team2) >= state.TeamSize:
		return next, 1, true
	case len(state.Remaining) == 1:
		if len(state.Team1) <= len(state.Team2) {
			return next, 1, true
		}
		return next, 2, true
	}
	return "", 0, false
}

// awaitPick asks the current picker until a valid pick arrives. When the
// turn times out a random remaining player is picked for them.
func (d *DraftComposer) awaitPick(scope *envelope.Scope, sess *session, state SessionState, channelID string, labels map[string]string) (string, error) {
	turnCtx, cancel := context.WithTimeout(scope.Ctx, d.pickTimeout)
	defer cancel()
	deadline, _ := turnCtx.Deadline()

	for {
		options := make([]guildops.PickOption, len(state.Remaining))
		for i, id := range state.Remaining {
			options[i] = guildops.PickOption{PlayerID: id, Label: labels[id]}
		}
		picked, err := d.picks.AwaitPick(turnCtx, guildops.PickPrompt{
			GameID:    state.GameID,
			ChannelID: channelID,
			CaptainID: state.CurrentPicker,
			Options:   options,
			Deadline:  deadline,
		})
		if err == nil {
			if state.ValidPick(picked) {
				d.announce(scope, channelID, fmt.Sprintf("<@%s> picked <@%s>", state.CurrentPicker, picked))
				return picked, nil
			}
			scope.Log.Warnf("[draft] game %d invalid pick %q by %s", state.GameID, picked, state.CurrentPicker)
			if turnCtx.Err() == nil {
				continue
			}
		}

		if scope.Ctx.Err() != nil || !sess.active() {
			return "", fmt.Errorf("%w: session ended", ErrDraftCancelled)
		}
		if errors.Is(turnCtx.Err(), context.DeadlineExceeded) {
			d.rngMu.Lock()
			auto := state.Remaining[d.rng.Intn(len(state.Remaining))]
			d.rngMu.Unlock()
			scope.Log.Infof("[draft] game %d %s timed out, auto-picked %s", state.GameID, state.CurrentPicker, auto)
			d.announce(scope, channelID, fmt.Sprintf("<@%s> took too long! Auto-picked <@%s>", state.CurrentPicker, auto))
			return auto, nil
		}
		return "", fmt.Errorf("await pick: %w", err)
	}
}

func (d *DraftComposer) createPickingChannels(scope *envelope.Scope, gameID int, players []string) (models.GameChannels, error) {
	var channels models.GameChannels
	text, err := d.guild.CreateChannel(scope.Ctx, guildops.ChannelSpec{
		Name:         fmt.Sprintf("game-%d-picking", gameID),
		Kind:         guildops.ChannelText,
		AllowedUsers: players,
	}, constants.GuildPriorityTextChannel)
	if err != nil {
		return channels, fmt.Errorf("create picking text channel: %w", err)
	}
	channels.PickingText = text

	voice, err := d.guild.CreateChannel(scope.Ctx, guildops.ChannelSpec{
		Name:         fmt.Sprintf("Game #%d Picking", gameID),
		Kind:         guildops.ChannelVoice,
		AllowedUsers: players,
	}, constants.GuildPriorityVoiceChannel)
	if err != nil {
		d.deleteChannels(scope, channels.All())
		return channels, fmt.Errorf("create picking voice channel: %w", err)
	}
	channels.PickingVoice = voice
	return channels, nil
}

func (d *DraftComposer) movePlayers(scope *envelope.Scope, players []string, channelID string) {
	summary := asyncutil.SettleAll(scope.Ctx, constants.PlayerFanOutLimit, players, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, d.guild.MovePlayer(ctx, id, channelID, constants.GuildPriorityMove)
	})
	if summary.Failed > 0 {
		scope.Log.WithError(summary.Err()).Debugf("[draft] %d players not moved to picking", summary.Failed)
	}
}

func (d *DraftComposer) announce(scope *envelope.Scope, channelID, content string) {
	if channelID == "" {
		return
	}
	if err := d.guild.SendMessage(scope.Ctx, channelID, content, constants.GuildPriorityMessage); err != nil {
		scope.Log.WithError(err).Debug("[draft] message not sent")
	}
}

func (d *DraftComposer) deleteChannels(scope *envelope.Scope, channelIDs []string) {
	// the draft context may already be gone
	ctx := context.WithoutCancel(scope.Ctx)
	for _, id := range channelIDs {
		if err := d.guild.DeleteChannel(ctx, id, constants.GuildPriorityCleanup); err != nil {
			scope.Log.WithError(err).Warnf("[draft] could not delete channel %s", id)
		}
	}
}
