// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"testing"
	"time"

	"github.com/onsi/gomega"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
)

// GomegaWithScope pairs gomega assertions with a scope whose log lines carry
// the test name. Eventually polls every 5ms for up to a second by default,
// which covers the shortened timers the coordinator tests use.
type GomegaWithScope struct {
	TestScope *envelope.Scope
	*gomega.GomegaWithT
}

func ParallelWithGomega(t *testing.T) GomegaWithScope {
	t.Parallel()
	return WithGomega(t)
}

func WithGomega(t *testing.T) GomegaWithScope {
	g := gomega.NewGomegaWithT(t)
	g.SetDefaultEventuallyTimeout(time.Second)
	g.SetDefaultEventuallyPollingInterval(5 * time.Millisecond)
	return GomegaWithScope{NewTestScope().WithField("test", t.Name()), g}
}
