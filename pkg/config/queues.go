// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rbwleague/matchcoordinator/pkg/models"
)

type queueEntry struct {
	ChannelID   string   `koanf:"channel_id"`
	MaxPlayers  int      `koanf:"max_players"`
	MinElo      int      `koanf:"min_elo"`
	MaxElo      int      `koanf:"max_elo"`
	Ranked      bool     `koanf:"ranked"`
	Mode        string   `koanf:"mode"`
	Active      *bool    `koanf:"active"`
	BypassRoles []string `koanf:"bypass_roles"`
}

type queuesFile struct {
	Queues []queueEntry `koanf:"queues"`
}

// LoadQueues reads queue definitions from a yaml file of the form
//
//	queues:
//	  - channel_id: "1122334455"
//	    max_players: 8
//	    max_elo: 5000
//	    mode: picking
//
// Queues are active unless `active: false` is set and random unless mode is
// picking. An empty path returns no queues.
func LoadQueues(path string) ([]models.Queue, error) {
	if path == "" {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load queues file %s: %w", path, err)
	}

	var out queuesFile
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal queues file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(out.Queues))
	queues := make([]models.Queue, 0, len(out.Queues))
	for _, e := range out.Queues {
		q := models.Queue{
			ID:          e.ChannelID,
			Capacity:    e.MaxPlayers,
			RatingMin:   e.MinElo,
			RatingMax:   e.MaxElo,
			Ranked:      e.Ranked,
			Mode:        models.QueueModeRandom,
			Active:      e.Active == nil || *e.Active,
			BypassRoles: e.BypassRoles,
		}
		if models.QueueMode(e.Mode) == models.QueueModeDraft {
			q.Mode = models.QueueModeDraft
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("queue %q: %w", e.ChannelID, err)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("queue %q is defined twice", q.ID)
		}
		seen[q.ID] = true
		queues = append(queues, q)
	}
	return queues, nil
}
