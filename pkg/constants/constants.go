// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

import "time"

// orchestrator
const (
	MaxConcurrentGames  = 100
	ProcessingDelay     = 1 * time.Second
	ImmediateDelay      = 100 * time.Millisecond
	LockTimeout         = 15 * time.Second
	MaxRetries          = 3
	RetryDelay          = 2 * time.Second
	MonitorInterval     = 2 * time.Second
	PriorityThreshold   = 10
	PriorityPenalty     = 5
	PriorityListCap     = 100
	MaxQueueSize        = 10000
	MaxGamesPerPass     = 10
	ReentryWindow       = 500 * time.Millisecond
	InterQueueDelay     = 500 * time.Millisecond
	QueueConfigCacheTTL = 30 * time.Second
	CacheSweepInterval  = 15 * time.Second
	IdleDecayAfter      = 5 * time.Minute
	IdleDecayFactor     = 0.8

	// capacity buffer is 10% of MaxConcurrentGames, never less than MinCapacityBuffer
	CapacityBufferRatio = 0.1
	MinCapacityBuffer   = 5

	SlowProcessingThreshold = 10 * time.Second
	HighErrorRateThreshold  = 0.3
)

// timeouts wrapped around external calls
const (
	ValidationTimeout  = 5 * time.Second
	ComposerTimeout    = 30 * time.Second
	OnlineCheckTimeout = 3 * time.Second
	ValidationCacheTTL = 5 * time.Second
)

// draft
const (
	PickTimeout     = 120 * time.Second
	SessionTimeout  = 10 * time.Minute
	GamePacingDelay = 2 * time.Second
)

// game lifecycle
const (
	WarpTimeout          = 60 * time.Second
	MaxWarpRetries       = 3
	WarpRetryDelay       = 5 * time.Second
	ResourceCleanupDelay = 30 * time.Second
	RecentGamesCap       = 50
	DailyRatingCap       = 30
	PlayerFanOutLimit    = 8
)

// maps
const (
	MapCacheTTL    = 60 * time.Second
	DefaultMapName = "Aquarius"
)

// guild operation priorities, higher runs first
const (
	GuildPriorityTextChannel  = 9
	GuildPriorityVoiceChannel = 8
	GuildPriorityMove         = 7
	GuildPriorityMessage      = 5
	GuildPriorityNickname     = 3
	GuildPriorityCleanup      = 1
)

const (
	ProcessQueueFunction = "processQueue"
	ValidateFunction     = "validate"
	ComposeFunction      = "compose"

	// result reasons, surfaced to operators as-is
	ReasonAlreadyProcessing = "Queue already being processed"
	ReasonNearCapacity      = "Server near capacity"
	ReasonMaxRetries        = "Max retries exceeded"
	ReasonQueueNotFound     = "Queue %s not found or inactive"

	// validation rejection reasons
	ReasonPlayerNotFound   = "player_not_found"
	ReasonMissingIGN       = "missing_ign"
	ReasonRestricted       = "banned_or_frozen"
	ReasonRatingOutOfRange = "rating_out_of_range"
	ReasonOffline          = "offline"
	ReasonPartyInvalid     = "party_invalid"
	ReasonValidationError  = "validation_error"
)
