// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package gameserver

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/go-openapi/swag"
	"github.com/rotisserie/eris"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

// EventHandler receives game lifecycle reports.
type EventHandler interface {
	HandleWarpResult(scope *envelope.Scope, gameID int, outcome WarpOutcome)
	HandleScoring(scope *envelope.Scope, event ScoringEvent)
	HandleVoiding(scope *envelope.Scope, gameID int, reason string)
}

// MapsReceiver receives the map catalogue.
type MapsReceiver interface {
	UpdateMaps(reserved []models.MapInfo, all []models.MapInfo)
}

type Dispatcher struct {
	events EventHandler
	maps   MapsReceiver
}

func NewDispatcher(events EventHandler, maps MapsReceiver) *Dispatcher {
	return &Dispatcher{events: events, maps: maps}
}

// Dispatch decodes one inbound message and routes it. Unknown types are ignored.
func (d *Dispatcher) Dispatch(scope *envelope.Scope, raw []byte) error {
	var head inbound
	if err := json.Unmarshal(raw, &head); err != nil {
		return eris.Wrap(err, "decode message type")
	}

	if outcome := warpOutcomeOf(head.Type); outcome != warpOutcomeNotAWarp {
		var p warpResultPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return eris.Wrapf(err, "decode %s", head.Type)
		}
		if p.id() == 0 {
			return eris.Errorf("%s without a game id", head.Type)
		}
		if d.events != nil {
			d.events.HandleWarpResult(scope, p.id(), outcome)
		}
		return nil
	}

	switch head.Type {
	case TypeScoring:
		var p scoringPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return eris.Wrap(err, "decode scoring")
		}
		if p.GameID == 0 {
			return eris.New("scoring without a game id")
		}
		if d.events != nil {
			d.events.HandleScoring(scope, toScoringEvent(p))
		}
	case TypeVoiding:
		var p voidingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return eris.Wrap(err, "decode voiding")
		}
		if p.GameID == 0 {
			return eris.New("voiding without a game id")
		}
		reason := p.Reason
		if reason == "" {
			reason = "Voided by game server"
		}
		if d.events != nil {
			d.events.HandleVoiding(scope, int(p.GameID), reason)
		}
	case TypeMapsInfo:
		var p mapsInfoPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return eris.Wrap(err, "decode maps_info")
		}
		if d.maps != nil {
			reserved, all := toMaps(p)
			d.maps.UpdateMaps(reserved, all)
		}
	default:
		scope.Log.Debugf("[gameserver] ignoring message type %q", head.Type)
	}
	return nil
}

func toScoringEvent(p scoringPayload) ScoringEvent {
	event := ScoringEvent{
		GameID:      int(p.GameID),
		WinningTeam: swag.IntValue(p.WinningTeamNumber),
		WinningIGNs: p.WinningTeamIGNs,
		MVPs:        p.MVPs,
		BedBreakers: p.BedsBroken,
		Stats:       make(map[string]models.PlayerStats, len(p.Players)),
	}
	if event.WinningTeam != 1 && event.WinningTeam != 2 {
		event.WinningTeam = 0
	}

	names := make([]string, 0, len(p.Players))
	for ign := range p.Players {
		names = append(names, ign)
	}
	sort.Strings(names)

	bedBreakers := make(map[string]bool, len(p.BedsBroken))
	for _, ign := range p.BedsBroken {
		bedBreakers[strings.ToLower(ign)] = true
	}

	for _, ign := range names {
		s := p.Players[ign]
		stats := models.PlayerStats{
			Kills:        s.Kills,
			Deaths:       s.Deaths,
			FinalKills:   s.FinalKills,
			Diamonds:     s.Diamonds,
			Irons:        s.Irons,
			Gold:         s.Gold,
			Emeralds:     s.Emeralds,
			BlocksPlaced: s.BlocksPlaced,
		}
		if bedBreakers[strings.ToLower(ign)] {
			stats.BedsBroken = 1
		}
		event.Stats[ign] = stats
	}

	// no MVPs reported: everyone tied on the most kills
	if len(event.MVPs) == 0 && len(names) > 0 {
		best := -1
		for _, ign := range names {
			kills := p.Players[ign].Kills
			switch {
			case kills > best:
				best = kills
				event.MVPs = []string{ign}
			case kills == best:
				event.MVPs = append(event.MVPs, ign)
			}
		}
	}
	return event
}

func toMaps(p mapsInfoPayload) (reserved []models.MapInfo, all []models.MapInfo) {
	convert := func(m reportedMap, locked bool) models.MapInfo {
		maxPlayers := swag.IntValue(m.MaxPlayers)
		if maxPlayers == 0 {
			maxPlayers = swag.IntValue(m.MaxPlayersAlt)
		}
		return models.MapInfo{Name: m.Name, MaxPlayers: maxPlayers, Locked: locked}
	}

	seen := make(map[string]int)
	add := func(info models.MapInfo) {
		if info.Name == "" {
			return
		}
		if idx, ok := seen[info.Name]; ok {
			all[idx] = info
			return
		}
		seen[info.Name] = len(all)
		all = append(all, info)
	}

	for _, m := range p.Reserved {
		info := convert(m, false)
		if info.Name != "" {
			reserved = append(reserved, info)
		}
		add(info)
	}
	for _, m := range p.Locked {
		add(convert(m, true))
	}
	for _, m := range p.Disabled {
		add(convert(m, true))
	}
	return reserved, all
}
