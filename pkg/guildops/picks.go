// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package guildops

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/rbwleague/matchcoordinator/pkg/constants"
)

const (
	pickCustomIDPrefix = "draft_pick"
	maxSelectOptions   = 25
)

// DiscordPicks posts a select menu for each turn and waits for the captain's choice.
// HandleInteraction must be registered as a discordgo handler.
type DiscordPicks struct {
	session *discordgo.Session
	limiter *Limiter

	mu      sync.Mutex
	waiters map[string]chan string
}

var _ PickSource = (*DiscordPicks)(nil)

func NewDiscordPicks(session *discordgo.Session, limiter *Limiter) *DiscordPicks {
	return &DiscordPicks{
		session: session,
		limiter: limiter,
		waiters: make(map[string]chan string),
	}
}

func pickCustomID(gameID int, captainID string) string {
	return fmt.Sprintf("%s:%d:%s", pickCustomIDPrefix, gameID, captainID)
}

func pickMessage(prompt PickPrompt) *discordgo.MessageSend {
	options := make([]discordgo.SelectMenuOption, 0, len(prompt.Options))
	for i, o := range prompt.Options {
		if i == maxSelectOptions {
			break
		}
		label := o.Label
		if len(label) > 100 {
			label = label[:100]
		}
		options = append(options, discordgo.SelectMenuOption{Label: label, Value: o.PlayerID})
	}
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s> it is your turn to pick. Pick before <t:%d:T>.", prompt.CaptainID, prompt.Deadline.Unix()),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    pickCustomID(prompt.GameID, prompt.CaptainID),
					Placeholder: "Choose a teammate",
					Options:     options,
				},
			}},
		},
	}
}

func (p *DiscordPicks) AwaitPick(ctx context.Context, prompt PickPrompt) (string, error) {
	key := pickCustomID(prompt.GameID, prompt.CaptainID)
	answer := make(chan string, 1)

	p.mu.Lock()
	p.waiters[key] = answer
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.waiters[key] == answer {
			delete(p.waiters, key)
		}
		p.mu.Unlock()
	}()

	msg := pickMessage(prompt)
	err := p.limiter.Do(ctx, constants.GuildPriorityMessage, func(ctx context.Context) error {
		_, err := p.session.ChannelMessageSendComplex(prompt.ChannelID, msg, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return "", eris.Wrapf(err, "post pick menu for game %d", prompt.GameID)
	}

	select {
	case playerID := <-answer:
		return playerID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// HandleInteraction routes select-menu answers to the waiting draft turn.
func (p *DiscordPicks) HandleInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Type != discordgo.InteractionMessageComponent {
		return
	}
	data := ic.MessageComponentData()
	if !strings.HasPrefix(data.CustomID, pickCustomIDPrefix+":") {
		return
	}

	userID := ""
	if ic.Member != nil && ic.Member.User != nil {
		userID = ic.Member.User.ID
	}
	if !strings.HasSuffix(data.CustomID, ":"+userID) || userID == "" {
		_ = s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "It is not your turn to pick.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	if err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		logrus.WithError(err).Warn("[draft] could not acknowledge pick interaction")
	}
	if len(data.Values) == 0 {
		return
	}

	p.mu.Lock()
	answer, ok := p.waiters[data.CustomID]
	p.mu.Unlock()
	if !ok {
		return
	}
	select {
	case answer <- data.Values[0]:
	default:
	}
}
