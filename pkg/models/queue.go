// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"fmt"

	validator "github.com/AccelByte/justice-input-validation-go"
)

type QueueMode string

const (
	QueueModeRandom QueueMode = "random"
	QueueModeDraft  QueueMode = "picking"
)

// Queue is a configured matchmaking pool bound to a voice channel.
type Queue struct {
	ID          string    `json:"channelId"             valid:"required,stringlength(1|64)"`
	Capacity    int       `json:"maxPlayers"            valid:"required,range(2|100)"`
	RatingMin   int       `json:"minElo"                optional:"true"                     valid:"range(0|2147483647)"`
	RatingMax   int       `json:"maxElo"                optional:"true"                     valid:"range(0|2147483647)"`
	Ranked      bool      `json:"isRanked"              valid:"-"`
	Mode        QueueMode `json:"queueType"             optional:"true"                     valid:"in(random|picking)"`
	Active      bool      `json:"isActive"              valid:"-"`
	BypassRoles []string  `json:"bypassRoles,omitempty" valid:"-"`
}

func (q Queue) Validate() error {
	if _, err := validator.ValidateStruct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQueue, err)
	}
	if q.RatingMin > q.RatingMax {
		return ErrQueueRatingRange
	}
	return nil
}

// TeamSize is the number of players on each side.
func (q Queue) TeamSize() int {
	return q.Capacity / 2
}

// EffectiveMode resolves the composer to use. Drafting needs at least two players per team,
// so queues of two or fewer always use random composition.
func (q Queue) EffectiveMode() QueueMode {
	if q.Capacity <= 2 {
		return QueueModeRandom
	}
	if q.Mode == QueueModeDraft {
		return QueueModeDraft
	}
	return QueueModeRandom
}

func (q Queue) AcceptsRating(rating int) bool {
	return rating >= q.RatingMin && rating <= q.RatingMax
}
