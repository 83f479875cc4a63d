package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	before := time.Now()
	actual := RealClock{}.Now()
	after := time.Now()

	assert.False(t, actual.Before(before))
	assert.False(t, actual.After(after))
}

func TestFakeClock(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	c := NewFakeClock(fixed)

	t.Run("returns fixed time", func(t *testing.T) {
		assert.True(t, c.Now().Equal(fixed))
	})

	t.Run("advance", func(t *testing.T) {
		c.Advance(36 * time.Hour)
		assert.True(t, c.Now().Equal(fixed.Add(36*time.Hour)))
	})

	t.Run("set", func(t *testing.T) {
		c.Set(fixed)
		assert.True(t, c.Now().Equal(fixed))
	})
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	c := NewFakeClock(time.Date(2024, 3, 1, 23, 15, 0, 0, loc))

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Today(c))
}
