package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntity(t *testing.T) {
	e := NewBaseEntity()

	assert.NotEqual(t, uuid.Nil, e.GetID())
	assert.False(t, e.GetCreatedAt().IsZero())
	assert.Equal(t, e.GetCreatedAt(), e.GetUpdatedAt())
}

func TestBaseEntityTouch(t *testing.T) {
	e := NewBaseEntity()
	e.UpdatedAt = time.Now().Add(-time.Hour)

	e.Touch()

	assert.True(t, e.GetUpdatedAt().After(e.GetCreatedAt().Add(-time.Second)))
	assert.True(t, time.Since(e.GetUpdatedAt()) < time.Minute)
}

func TestNewBaseAggregateRoot(t *testing.T) {
	a := NewBaseAggregateRoot()

	assert.Equal(t, 1, a.GetVersion())
	a.IncrementVersion()
	assert.Equal(t, 2, a.GetVersion())
}
