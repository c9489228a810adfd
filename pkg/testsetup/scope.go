// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
)

// NewTestScope creates a new scope for test use
func NewTestScope() *envelope.Scope {
	return envelope.NewRootScope(context.Background(), "test", "")
}

// QueueScope is a test scope tagged with queueID, as a processing pass is.
func QueueScope(queueID string) *envelope.Scope {
	scope := NewTestScope().WithField("queue", queueID)
	scope.SetAttributes(envelope.QueueIDTag, queueID)
	return scope
}

// GameScope is a test scope tagged with gameID, as scoring and voiding are.
func GameScope(gameID int) *envelope.Scope {
	scope := NewTestScope().WithField("game", gameID)
	scope.SetAttributes(envelope.GameIDTag, gameID)
	return scope
}

// CapturingScope returns a test scope whose log entries are kept by the hook.
func CapturingScope() (*envelope.Scope, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	scope := NewTestScope()
	scope.SetLogger(logger)
	return scope, hook
}
