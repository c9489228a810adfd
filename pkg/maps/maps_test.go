// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/models"
)

type countingProvider struct {
	reserved, all []models.MapInfo
	err           error
	calls         int
}

func (p *countingProvider) Maps(context.Context) ([]models.MapInfo, []models.MapInfo, error) {
	p.calls++
	return p.reserved, p.all, p.err
}

func scope() *envelope.Scope {
	return envelope.NewRootScope(context.Background(), "test", "")
}

func TestSelector_Select(t *testing.T) {
	t.Parallel()

	lighthouse := models.MapInfo{Name: "Lighthouse", MaxPlayers: 8}
	pernicious := models.MapInfo{Name: "Pernicious", MaxPlayers: 4}
	locked := models.MapInfo{Name: "Glacier", MaxPlayers: 8, Locked: true}

	tests := []struct {
		name     string
		reserved []models.MapInfo
		all      []models.MapInfo
		capacity int
		want     []string
	}{
		{
			name:     "reserved map of matching size",
			reserved: []models.MapInfo{lighthouse},
			all:      []models.MapInfo{lighthouse, pernicious},
			capacity: 8,
			want:     []string{"Lighthouse"},
		},
		{
			name:     "unlocked map of matching size",
			reserved: []models.MapInfo{lighthouse},
			all:      []models.MapInfo{lighthouse, pernicious, locked},
			capacity: 4,
			want:     []string{"Pernicious"},
		},
		{
			name:     "any unlocked map",
			all:      []models.MapInfo{pernicious, locked},
			capacity: 8,
			want:     []string{"Pernicious"},
		},
		{
			name:     "default map",
			all:      []models.MapInfo{locked},
			capacity: 8,
			want:     []string{constants.DefaultMapName},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewSelector(&countingProvider{reserved: tt.reserved, all: tt.all})
			assert.Contains(t, tt.want, s.Select(scope(), tt.capacity))
		})
	}
}

func TestSelector_CachesCatalogue(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	p := &countingProvider{all: []models.MapInfo{{Name: "Aquarius", MaxPlayers: 8}}}
	s := NewSelector(p)
	s.now = func() time.Time { return now }

	s.Select(scope(), 8)
	s.Select(scope(), 8)
	assert.Equal(t, 1, p.calls)

	now = now.Add(constants.MapCacheTTL)
	s.Select(scope(), 8)
	assert.Equal(t, 2, p.calls)

	s.Invalidate()
	_, ok := s.ByName(scope(), "aquarius")
	assert.True(t, ok)
	assert.Equal(t, 3, p.calls)
}

func TestSelector_ProviderErrorFallsBack(t *testing.T) {
	t.Parallel()

	s := NewSelector(&countingProvider{err: errors.New("down")})
	assert.Equal(t, constants.DefaultMapName, s.Select(scope(), 8))
}

func TestCatalogue(t *testing.T) {
	t.Parallel()

	c := NewCatalogue()
	assert.True(t, c.UpdatedAt().IsZero())
	c.UpdateMaps([]models.MapInfo{{Name: "A", MaxPlayers: 2}}, []models.MapInfo{{Name: "A", MaxPlayers: 2}, {Name: "B"}})

	reserved, all, err := c.Maps(context.Background())
	assert.NoError(t, err)
	assert.Len(t, reserved, 1)
	assert.Len(t, all, 2)
	assert.False(t, c.UpdatedAt().IsZero())
}
