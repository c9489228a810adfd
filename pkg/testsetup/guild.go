// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rbwleague/matchcoordinator/pkg/guildops"
)

type SentMessage struct {
	ChannelID string
	Content   string
}

// FakeGuild records guild operations in memory.
type FakeGuild struct {
	mu        sync.Mutex
	nextID    int
	channels  map[string]guildops.ChannelSpec
	deleted   []string
	moves     map[string]string
	messages  []SentMessage
	nicknames map[string]string

	// FailCreate makes every CreateChannel call fail.
	FailCreate error
}

var _ guildops.Operations = (*FakeGuild)(nil)

func NewFakeGuild() *FakeGuild {
	return &FakeGuild{
		channels:  map[string]guildops.ChannelSpec{},
		moves:     map[string]string{},
		nicknames: map[string]string{},
	}
}

func (f *FakeGuild) CreateChannel(_ context.Context, spec guildops.ChannelSpec, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreate != nil {
		return "", f.FailCreate
	}
	f.nextID++
	id := fmt.Sprintf("chan-%d", f.nextID)
	f.channels[id] = spec
	return id, nil
}

func (f *FakeGuild) DeleteChannel(_ context.Context, channelID string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels, channelID)
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *FakeGuild) MovePlayer(_ context.Context, playerID, channelID string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves[playerID] = channelID
	return nil
}

func (f *FakeGuild) SendMessage(_ context.Context, channelID, content string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, SentMessage{ChannelID: channelID, Content: content})
	return nil
}

func (f *FakeGuild) SetNickname(_ context.Context, playerID, nickname string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nicknames[playerID] = nickname
	return nil
}

func (f *FakeGuild) OpenChannels() map[string]guildops.ChannelSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]guildops.ChannelSpec, len(f.channels))
	for k, v := range f.channels {
		out[k] = v
	}
	return out
}

func (f *FakeGuild) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *FakeGuild) ChannelOf(playerID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moves[playerID]
}

func (f *FakeGuild) Nickname(playerID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nicknames[playerID]
}

func (f *FakeGuild) Messages() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.messages...)
}

// MessagesContaining returns messages whose content contains substr.
func (f *FakeGuild) MessagesContaining(substr string) []SentMessage {
	var out []SentMessage
	for _, m := range f.Messages() {
		if strings.Contains(m.Content, substr) {
			out = append(out, m)
		}
	}
	return out
}
