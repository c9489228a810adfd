// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ulid "github.com/oklog/ulid/v2"
)

var (
	ulidMutex   sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// GenerateUUID generates uuid without hyphens.
func GenerateUUID() string {
	id, _ := uuid.NewRandom()
	return strings.ReplaceAll(id.String(), "-", "")
}

// NewULID returns a lexically sortable id stamped with t.
// Used for draft sessions and audit reports so they sort by creation time.
func NewULID(t time.Time) string {
	ulidMutex.Lock()
	defer ulidMutex.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), ulidEntropy).String()
}

// NewRand creates a random source seeded from the clock.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
