// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"sync"

	"github.com/rbwleague/matchcoordinator/pkg/guildops"
)

// ScriptedPicks answers draft turns. Choose, when set, decides every turn;
// otherwise the first offered option is taken. A turn with Stall set for
// its pick number blocks until the context ends.
type ScriptedPicks struct {
	mu      sync.Mutex
	prompts []guildops.PickPrompt

	Choose func(prompt guildops.PickPrompt, turn int) (string, error)
	Stall  map[int]bool
}

var _ guildops.PickSource = (*ScriptedPicks)(nil)

func (s *ScriptedPicks) AwaitPick(ctx context.Context, prompt guildops.PickPrompt) (string, error) {
	s.mu.Lock()
	turn := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	stall := s.Stall[turn]
	choose := s.Choose
	s.mu.Unlock()

	if stall {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if choose != nil {
		return choose(prompt, turn)
	}
	if len(prompt.Options) == 0 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return prompt.Options[0].PlayerID, nil
}

func (s *ScriptedPicks) Prompts() []guildops.PickPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]guildops.PickPrompt(nil), s.prompts...)
}
