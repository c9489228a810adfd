// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package guildops

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/rbwleague/matchcoordinator/pkg/models"
)

const voiceLookupTimeout = 5 * time.Second

// QueueLookup resolves a voice channel id to a queue configuration.
type QueueLookup interface {
	FindQueue(ctx context.Context, queueID string) (*models.Queue, error)
}

type QueueMembers interface {
	Join(queueID, playerID string) bool
	Leave(queueID, playerID string) bool
	QueueOf(playerID string) (string, bool)
}

type QueueScheduler interface {
	ScheduleQueueProcessing(queueID string, immediate bool)
}

// VoiceQueues keeps queue membership in step with voice presence. A queue id
// is the id of its voice channel. HandleVoiceState must be registered as a
// discordgo handler.
type VoiceQueues struct {
	guildID   string
	queues    QueueLookup
	members   QueueMembers
	scheduler QueueScheduler
}

func NewVoiceQueues(guildID string, queues QueueLookup, members QueueMembers, scheduler QueueScheduler) *VoiceQueues {
	return &VoiceQueues{guildID: guildID, queues: queues, members: members, scheduler: scheduler}
}

func (v *VoiceQueues) HandleVoiceState(_ *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs == nil || vs.VoiceState == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), voiceLookupTimeout)
	defer cancel()
	v.apply(ctx, vs.GuildID, vs.UserID, vs.ChannelID)
}

// apply moves userID into the queue behind channelID. An empty or non-queue
// channel only removes the player from the queue they were waiting in.
func (v *VoiceQueues) apply(ctx context.Context, guildID, userID, channelID string) {
	if guildID != v.guildID || userID == "" {
		return
	}

	current, waiting := v.members.QueueOf(userID)
	if waiting && current == channelID {
		// mute, deafen and stream toggles
		return
	}
	if waiting {
		v.members.Leave(current, userID)
		logrus.WithField("player", userID).Debugf("[guildops] left queue %s", current)
	}
	if channelID == "" {
		return
	}

	queue, err := v.queues.FindQueue(ctx, channelID)
	if err != nil || !queue.Active {
		return
	}
	if !v.members.Join(queue.ID, userID) {
		logrus.WithField("player", userID).Warnf("[guildops] could not join queue %s", queue.ID)
		return
	}
	v.scheduler.ScheduleQueueProcessing(queue.ID, false)
}
