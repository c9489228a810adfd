// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
)

var (
	ErrInvalidQueue     = errors.New("queue configuration is invalid")
	ErrQueueCapacity    = errors.New("queue capacity must be at least 2")
	ErrQueueRatingRange = errors.New("queue minimum rating should not exceed maximum rating")

	ErrMalformedTeams   = errors.New("game teams are missing or empty")
	ErrOverlappingTeams = errors.New("a player is assigned to both teams")

	ErrGameNotFound       = errors.New("game not found")
	ErrGameAlreadyScored  = errors.New("game has already been scored")
	ErrGameAlreadyVoided  = errors.New("game has already been voided")
	ErrInvalidScoreResult = errors.New("score result needs a game id and a winning team")
	ErrInvalidWinningTeam = errors.New("winning team must be 1 or 2")
	ErrInvalidVoidRequest = errors.New("void needs a game id and a reason")
	ErrPlayersMissing     = errors.New("not every player of the game could be loaded")
)

var errorCodeMap = map[error]int{
	ErrInvalidQueue:       510201,
	ErrQueueCapacity:      510202,
	ErrQueueRatingRange:   510203,
	ErrMalformedTeams:     510301,
	ErrOverlappingTeams:   510302,
	ErrGameNotFound:       510303,
	ErrGameAlreadyScored:  510304,
	ErrGameAlreadyVoided:  510305,
	ErrInvalidScoreResult: 510306,
	ErrInvalidWinningTeam: 510307,
	ErrInvalidVoidRequest: 510308,
	ErrPlayersMissing:     510309,
}

// ErrorCode returns a code for the error, unwrapping as needed.
// It returns 20002 if the error is not registered in the map.
func ErrorCode(err error) int {
	for known, code := range errorCodeMap {
		if errors.Is(err, known) {
			return code
		}
	}
	return 20002
}
