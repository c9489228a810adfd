// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
)

// FakeGameServer records outbound messages and answers online checks from a set.
type FakeGameServer struct {
	mu     sync.Mutex
	sent   []any
	online map[string]bool

	// AllOnline answers true for names not in the set.
	AllOnline   bool
	OnlineErr   error
	OnlineDelay time.Duration
	SendErr     error
}

var _ gameserver.Channel = (*FakeGameServer)(nil)

func NewFakeGameServer() *FakeGameServer {
	return &FakeGameServer{online: map[string]bool{}, AllOnline: true}
}

func (f *FakeGameServer) SetOnline(ign string, online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[strings.ToLower(ign)] = online
}

func (f *FakeGameServer) Send(_ context.Context, msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *FakeGameServer) CheckPlayerOnline(ctx context.Context, ign string) (bool, error) {
	if f.OnlineDelay > 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(f.OnlineDelay):
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OnlineErr != nil {
		return false, f.OnlineErr
	}
	if online, ok := f.online[strings.ToLower(ign)]; ok {
		return online, nil
	}
	return f.AllOnline, nil
}

func (f *FakeGameServer) Sent() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.sent...)
}

func (f *FakeGameServer) WarpRequests() []gameserver.WarpPlayers {
	var out []gameserver.WarpPlayers
	for _, m := range f.Sent() {
		if w, ok := m.(gameserver.WarpPlayers); ok {
			out = append(out, w)
		}
	}
	return out
}

func (f *FakeGameServer) VoidNotices() []gameserver.GameVoided {
	var out []gameserver.GameVoided
	for _, m := range f.Sent() {
		if v, ok := m.(gameserver.GameVoided); ok {
			out = append(out, v)
		}
	}
	return out
}

func (f *FakeGameServer) ScoringNotices() []gameserver.ScoringSuccess {
	var out []gameserver.ScoringSuccess
	for _, m := range f.Sent() {
		if s, ok := m.(gameserver.ScoringSuccess); ok {
			out = append(out, s)
		}
	}
	return out
}
