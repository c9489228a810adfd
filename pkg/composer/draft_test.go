// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbwleague/matchcoordinator/pkg/guildops"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/repository/memory"
	"github.com/rbwleague/matchcoordinator/pkg/testsetup"
)

var draftQueue = models.Queue{ID: "draft", Capacity: 8, RatingMax: 5000, Ranked: true, Mode: models.QueueModeDraft, Active: true}

type draftFixture struct {
	store   *memory.Store
	guild   *testsetup.FakeGuild
	picks   *testsetup.ScriptedPicks
	creator *fakeCreator
	requeue *recordingQueue
	metrics *testsetup.StubMetrics
	factory *testsetup.PlayerFactory
	d       *DraftComposer
}

func newDraftFixture() *draftFixture {
	f := &draftFixture{
		store:   memory.NewStore(nil),
		guild:   testsetup.NewFakeGuild(),
		picks:   &testsetup.ScriptedPicks{},
		creator: &fakeCreator{},
		requeue: &recordingQueue{},
		metrics: testsetup.NewStubMetrics(),
		factory: testsetup.NewPlayerFactory(3),
	}
	f.d = NewDraftComposer(DraftDeps{
		Players: f.store,
		Parties: f.store,
		Guild:   f.guild,
		Picks:   f.picks,
		Creator: f.creator,
		Maps:    fixedMap("Lotus"),
		Requeue: f.requeue,
		Metrics: f.metrics,
	})
	f.d.SetPacing(0)
	return f
}

// players stores eight players rated 100..800 in that order.
func (f *draftFixture) players(t *testing.T) []string {
	t.Helper()
	var ps []*models.Player
	for i := 1; i <= 8; i++ {
		ps = append(ps, f.factory.Player(i*100))
	}
	return testsetup.SavePlayers(t, f.store, ps...)
}

func TestDraft_NoParties(t *testing.T) {
	f := newDraftFixture()
	ids := f.players(t)

	result, err := f.d.Draft(testsetup.NewTestScope(), 1, ids, draftQueue)
	require.NoError(t, err)

	assert.Equal(t, [2]string{ids[7], ids[0]}, result.Captains)
	assert.Equal(t, Verified, result.Verification.Kind)
	assert.Len(t, result.Verification.Team1, 4)
	assert.Len(t, result.Verification.Team2, 4)
	assert.ElementsMatch(t, ids, append(append([]string(nil), result.Verification.Team1...), result.Verification.Team2...))
	assert.Equal(t, ids[7], result.Verification.Team1[0])
	assert.Equal(t, ids[0], result.Verification.Team2[0])

	prompts := f.picks.Prompts()
	require.Len(t, prompts, 5)
	assert.Equal(t, ids[7], prompts[0].CaptainID)
	assert.Equal(t, ids[0], prompts[1].CaptainID)
	assert.Equal(t, ids[0], prompts[2].CaptainID)
	assert.Equal(t, ids[7], prompts[3].CaptainID)
	assert.Len(t, prompts[0].Options, 6)

	specs := f.creator.created()
	require.Len(t, specs, 1)
	assert.Equal(t, "Lotus", specs[0].Map)
	assert.NotEmpty(t, specs[0].PickingText)
	assert.NotEmpty(t, specs[0].PickingVoice)
	assert.Equal(t, 1, f.metrics.DraftOutcomes("verified"))
	assert.Equal(t, 1, f.metrics.GamesCreated("draft"))
	assert.Equal(t, specs[0].PickingVoice, f.guild.ChannelOf(ids[3]))
}

func TestDraft_CaptainPartyJoinsCaptain(t *testing.T) {
	f := newDraftFixture()
	ids := f.players(t)

	for _, id := range ids[2:4] {
		p, err := f.store.FindPlayer(context.Background(), id)
		require.NoError(t, err)
		p.PartyID = "p1"
		require.NoError(t, f.store.SavePlayer(context.Background(), p))
	}
	require.NoError(t, f.store.SaveParty(context.Background(), models.Party{ID: "p1", Leader: ids[2], Members: []string{ids[2], ids[3]}}))

	result, err := f.d.Draft(testsetup.NewTestScope(), 1, ids, draftQueue)
	require.NoError(t, err)

	assert.Equal(t, ids[2], result.Captains[0])
	assert.Contains(t, result.Verification.Team1, ids[3])
	assert.Len(t, result.Verification.Team1, 4)
	assert.Len(t, result.Verification.Team2, 4)

	prompts := f.picks.Prompts()
	require.NotEmpty(t, prompts)
	assert.Equal(t, result.Captains[1], prompts[0].CaptainID, "solo captain opens")
}

func TestDraft_InvalidPickIsAskedAgain(t *testing.T) {
	f := newDraftFixture()
	f.picks.Choose = func(prompt guildops.PickPrompt, turn int) (string, error) {
		if turn == 0 {
			return "not-a-player", nil
		}
		return prompt.Options[0].PlayerID, nil
	}
	ids := f.players(t)

	result, err := f.d.Draft(testsetup.NewTestScope(), 1, ids, draftQueue)
	require.NoError(t, err)
	assert.Equal(t, Verified, result.Verification.Kind)

	prompts := f.picks.Prompts()
	require.Len(t, prompts, 6)
	assert.Equal(t, prompts[0].CaptainID, prompts[1].CaptainID)
}

func TestDraft_PickTimeoutAutoPicks(t *testing.T) {
	f := newDraftFixture()
	f.picks.Stall = map[int]bool{0: true}
	f.d.SetPickTimeout(20 * time.Millisecond)
	ids := f.players(t)

	result, err := f.d.Draft(testsetup.NewTestScope(), 1, ids, draftQueue)
	require.NoError(t, err)
	assert.Len(t, result.Verification.Team1, 4)
	assert.NotEmpty(t, f.guild.MessagesContaining("took too long"))
}

func TestDraft_CancelSessionVoidsDraft(t *testing.T) {
	g := testsetup.WithGomega(t)
	f := newDraftFixture()
	f.picks.Stall = map[int]bool{0: true}
	ids := f.players(t)

	errc := make(chan error, 1)
	go func() {
		_, err := f.d.Draft(g.TestScope, 4, ids, draftQueue)
		errc <- err
	}()

	g.Eventually(f.d.Sessions.Active).Should(gomega.Equal([]int{4}))
	snapshot, ok := f.d.Sessions.Snapshot(4)
	g.Expect(ok).To(gomega.BeTrue())
	g.Expect(snapshot.Remaining).To(gomega.HaveLen(6))

	g.Expect(f.d.Sessions.CancelSession(4)).To(gomega.BeTrue())

	var err error
	g.Eventually(errc).Should(gomega.Receive(&err))
	g.Expect(errors.Is(err, ErrDraftCancelled)).To(gomega.BeTrue())
	g.Expect(f.creator.created()).To(gomega.BeEmpty())
	g.Expect(f.guild.OpenChannels()).To(gomega.BeEmpty())
	g.Expect(f.metrics.DraftOutcomes("voided")).To(gomega.Equal(1))
	g.Expect(f.d.Sessions.Active()).To(gomega.BeEmpty())
}

func TestDraftCompose_StartsDraftsAsync(t *testing.T) {
	f := newDraftFixture()
	ids := f.players(t)

	out, err := f.d.Compose(testsetup.NewTestScope(), ids, draftQueue, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, out.GamesCreated)
	assert.ElementsMatch(t, ids, out.Consumed)

	f.d.Wait()
	assert.Len(t, f.creator.created(), 1)
	assert.Empty(t, f.requeue.players())
}

func TestDraftCompose_FailedDraftReturnsPlayers(t *testing.T) {
	f := newDraftFixture()
	f.creator.failErr = errors.New("guild unavailable")
	ids := f.players(t)

	out, err := f.d.Compose(testsetup.NewTestScope(), ids, draftQueue, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, out.GamesCreated)

	f.d.Wait()
	assert.ElementsMatch(t, ids, f.requeue.players())
	assert.Empty(t, f.guild.OpenChannels())
}

func TestDraftCompose_Cleanup(t *testing.T) {
	f := newDraftFixture()
	f.picks.Stall = map[int]bool{0: true}
	ids := f.players(t)

	_, err := f.d.Compose(testsetup.NewTestScope(), ids, draftQueue, 1)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(f.d.Sessions.Active()) == 1 }, time.Second, 5*time.Millisecond)
	f.d.Cleanup()

	assert.Empty(t, f.d.Sessions.Active())
	assert.Empty(t, f.creator.created())
	assert.ElementsMatch(t, ids, f.requeue.players())
}

func TestNewSessionState_SharedCaptainPartyIsDrafted(t *testing.T) {
	party := partyGroup{ID: "p", Members: []string{"a", "b", "c", "d"}}
	state := newSessionState(1, draftQueue, cands(500, 400, 300, 200), []partyGroup{party}, [2]string{"a", "b"})

	assert.Equal(t, []string{"a"}, state.Team1)
	assert.Equal(t, []string{"b"}, state.Team2)
	assert.Equal(t, []string{"c", "d"}, state.Remaining)
}

func TestNewSessionState_CaptainPartyPlacedOnce(t *testing.T) {
	parties := []partyGroup{{ID: "p", Members: []string{"a", "c"}}, {ID: "q", Members: []string{"b", "d"}}}
	state := newSessionState(1, draftQueue, cands(500, 400, 300, 200, 100, 50), parties, [2]string{"a", "b"})

	assert.Equal(t, []string{"a", "c"}, state.Team1)
	assert.Equal(t, []string{"b", "d"}, state.Team2)
	assert.Equal(t, []string{"e", "f"}, state.Remaining)
}
