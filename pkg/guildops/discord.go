// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package guildops

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
)

// Discord implements Operations against a single guild.
type Discord struct {
	session    *discordgo.Session
	guildID    string
	categoryID string
	limiter    *Limiter
}

var _ Operations = (*Discord)(nil)

func NewDiscord(session *discordgo.Session, guildID, categoryID string, limiter *Limiter) *Discord {
	return &Discord{
		session:    session,
		guildID:    guildID,
		categoryID: categoryID,
		limiter:    limiter,
	}
}

func (d *Discord) overwrites(allowed []string) []*discordgo.PermissionOverwrite {
	if len(allowed) == 0 {
		return nil
	}
	perms := int64(discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect | discordgo.PermissionSendMessages)
	out := make([]*discordgo.PermissionOverwrite, 0, len(allowed)+1)
	out = append(out, &discordgo.PermissionOverwrite{
		ID:   d.guildID,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: perms,
	})
	for _, id := range allowed {
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: perms,
		})
	}
	return out
}

func (d *Discord) CreateChannel(ctx context.Context, spec ChannelSpec, priority int) (string, error) {
	kind := discordgo.ChannelTypeGuildText
	if spec.Kind == ChannelVoice {
		kind = discordgo.ChannelTypeGuildVoice
	}
	data := discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 kind,
		ParentID:             d.categoryID,
		PermissionOverwrites: d.overwrites(spec.AllowedUsers),
	}

	var channelID string
	err := d.limiter.Do(ctx, priority, func(ctx context.Context) error {
		ch, err := d.session.GuildChannelCreateComplex(d.guildID, data, discordgo.WithContext(ctx))
		if err != nil {
			return err
		}
		channelID = ch.ID
		return nil
	})
	if err != nil {
		return "", eris.Wrapf(err, "create channel %s", spec.Name)
	}
	return channelID, nil
}

func (d *Discord) DeleteChannel(ctx context.Context, channelID string, priority int) error {
	err := d.limiter.Do(ctx, priority, func(ctx context.Context) error {
		_, err := d.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
		return err
	})
	return eris.Wrapf(err, "delete channel %s", channelID)
}

func (d *Discord) MovePlayer(ctx context.Context, playerID, channelID string, priority int) error {
	err := d.limiter.Do(ctx, priority, func(ctx context.Context) error {
		target := channelID
		return d.session.GuildMemberMove(d.guildID, playerID, &target, discordgo.WithContext(ctx))
	})
	return eris.Wrapf(err, "move %s to %s", playerID, channelID)
}

func (d *Discord) SendMessage(ctx context.Context, channelID, content string, priority int) error {
	err := d.limiter.Do(ctx, priority, func(ctx context.Context) error {
		_, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
		return err
	})
	return eris.Wrapf(err, "send message to %s", channelID)
}

func (d *Discord) SetNickname(ctx context.Context, playerID, nickname string, priority int) error {
	if len(nickname) > 32 {
		nickname = nickname[:32]
	}
	err := d.limiter.Do(ctx, priority, func(ctx context.Context) error {
		return d.session.GuildMemberNickname(d.guildID, playerID, nickname, discordgo.WithContext(ctx))
	})
	return eris.Wrapf(err, "set nickname of %s", playerID)
}
