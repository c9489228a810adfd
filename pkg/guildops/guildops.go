// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package guildops abstracts the chat-guild side effects of matchmaking:
// channels, voice moves, messages and nicknames. Every call carries a
// priority hint; higher values are dispatched first under rate limiting.
package guildops

import (
	"context"
	"time"
)

type ChannelKind int

const (
	ChannelText ChannelKind = iota
	ChannelVoice
)

type ChannelSpec struct {
	Name string
	Kind ChannelKind
	// AllowedUsers restricts visibility to these members when non-empty.
	AllowedUsers []string
}

type Operations interface {
	CreateChannel(ctx context.Context, spec ChannelSpec, priority int) (string, error)
	DeleteChannel(ctx context.Context, channelID string, priority int) error
	MovePlayer(ctx context.Context, playerID, channelID string, priority int) error
	SendMessage(ctx context.Context, channelID, content string, priority int) error
	SetNickname(ctx context.Context, playerID, nickname string, priority int) error
}

type PickOption struct {
	PlayerID string
	Label    string
}

// PickPrompt asks a captain to choose one of Options.
type PickPrompt struct {
	GameID    int
	ChannelID string
	CaptainID string
	Options   []PickOption
	Deadline  time.Time
}

// PickSource delivers draft picks. AwaitPick blocks until the captain answers
// or ctx is done, and returns the chosen player id.
type PickSource interface {
	AwaitPick(ctx context.Context, prompt PickPrompt) (string, error)
}
