// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package composer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/rbwleague/matchcoordinator/pkg/common"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
)

// SessionState is the picking state of one draft.
type SessionState struct {
	ID            string
	GameID        int
	QueueID       string
	Captains      [2]string
	Candidates    []string
	Remaining     []string
	Team1         []string
	Team2         []string
	TeamSize      int
	CurrentPicker string
	PickCount     int
	Active        bool
	// Parties maps party id to the members present in this draft.
	Parties    map[string][]string
	PartyOrder []string
	StartedAt  time.Time
}

func (s *SessionState) contains(list []string, playerID string) bool {
	for _, id := range list {
		if id == playerID {
			return true
		}
	}
	return false
}

// ValidPick reports whether playerID can be picked right now.
func (s *SessionState) ValidPick(playerID string) bool {
	return s.contains(s.Remaining, playerID) && !s.contains(s.Team1, playerID) && !s.contains(s.Team2, playerID)
}

func (s *SessionState) captainTeam(captain string) int {
	if captain == s.Captains[0] {
		return 1
	}
	return 2
}

func (s *SessionState) teamLen(team int) int {
	if team == 1 {
		return len(s.Team1)
	}
	return len(s.Team2)
}

func (s *SessionState) place(playerID string, team int) {
	if team == 1 {
		s.Team1 = append(s.Team1, playerID)
	} else {
		s.Team2 = append(s.Team2, playerID)
	}
	remaining := s.Remaining[:0]
	for _, id := range s.Remaining {
		if id != playerID {
			remaining = append(remaining, id)
		}
	}
	s.Remaining = remaining
}

// captainParty returns the party led by captain, if any.
func (s *SessionState) captainParty(captain string) ([]string, bool) {
	for _, partyID := range s.PartyOrder {
		members := s.Parties[partyID]
		if s.contains(members, captain) {
			return members, true
		}
	}
	return nil, false
}

// nextPicker applies the pick order for the current pick count. With exactly
// one party the solo captain opens, the party captain takes the next two and
// the solo captain the fourth; after that, and in every other case, picks
// snake 1,2,2,1. A captain whose team is full passes the turn.
func (s *SessionState) nextPicker() string {
	first, second := s.Captains[0], s.Captains[1]

	picker := second
	if firstCaptainPicks(s.PickCount) {
		picker = first
	}
	if len(s.Parties) == 1 && s.PickCount < 4 {
		partyCaptain, soloCaptain := "", ""
		for _, c := range s.Captains {
			if _, ok := s.captainParty(c); ok {
				partyCaptain = c
			} else {
				soloCaptain = c
			}
		}
		if partyCaptain != "" && soloCaptain != "" {
			switch s.PickCount {
			case 0, 3:
				picker = soloCaptain
			default:
				picker = partyCaptain
			}
		}
	}

	if s.TeamSize > 0 && s.teamLen(s.captainTeam(picker)) >= s.TeamSize {
		if picker == first {
			return second
		}
		return first
	}
	return picker
}

type session struct {
	mu     sync.Mutex
	state  SessionState
	cancel context.CancelFunc
}

func (s *session) snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied, err := copystructure.Copy(s.state)
	if err != nil {
		return s.state
	}
	return copied.(SessionState)
}

func (s *session) update(fn func(state *SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *session) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Active
}

// Sessions tracks drafts in progress, one per game id.
type Sessions struct {
	mu       sync.Mutex
	sessions map[int]*session
	timeout  time.Duration
	now      func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[int]*session),
		timeout:  constants.SessionTimeout,
		now:      time.Now,
	}
}

// start registers a session and returns a context that ends on session
// timeout or cancellation.
func (r *Sessions) start(parent context.Context, state SessionState) (*session, context.Context) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	state.ID = common.NewULID(r.now())
	state.StartedAt = r.now()
	state.Active = true

	s := &session{state: state, cancel: cancel}
	r.mu.Lock()
	if old, ok := r.sessions[state.GameID]; ok {
		old.update(func(st *SessionState) { st.Active = false })
		old.cancel()
	}
	r.sessions[state.GameID] = s
	r.mu.Unlock()
	return s, ctx
}

// finish removes the session when it is still the registered one.
func (r *Sessions) finish(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gameID := s.snapshot().GameID
	if r.sessions[gameID] == s {
		delete(r.sessions, gameID)
	}
	s.update(func(st *SessionState) { st.Active = false })
	s.cancel()
}

// CancelSession stops the draft of gameID. The draft is voided.
func (r *Sessions) CancelSession(gameID int) bool {
	r.mu.Lock()
	s, ok := r.sessions[gameID]
	delete(r.sessions, gameID)
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.update(func(st *SessionState) { st.Active = false })
	s.cancel()
	return true
}

// Snapshot returns a deep copy of the draft state of gameID.
func (r *Sessions) Snapshot(gameID int) (SessionState, bool) {
	r.mu.Lock()
	s, ok := r.sessions[gameID]
	r.mu.Unlock()
	if !ok {
		return SessionState{}, false
	}
	return s.snapshot(), true
}

// Active lists the game ids with a draft in progress.
func (r *Sessions) Active() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Cleanup cancels every draft in progress.
func (r *Sessions) Cleanup() int {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[int]*session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.update(func(st *SessionState) { st.Active = false })
		s.cancel()
	}
	return len(sessions)
}
