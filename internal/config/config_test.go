package config

import (
	"testing"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestFromLookup(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromLookup(lookup(map[string]string{"DB_DSN": "postgres://localhost/db"}))
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 365, cfg.LookaheadDays)
		assert.Equal(t, int32(10), cfg.DBMaxConns)
		assert.Equal(t, model.NewTimeOfDay(8, 0), cfg.BusinessHoursStart)
		assert.Equal(t, model.NewTimeOfDay(20, 0), cfg.BusinessHoursEnd)
		assert.Equal(t, model.SubstitutionDisallow, cfg.SubstitutionPolicy)
		assert.False(t, cfg.BotEnabled())
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := FromLookup(lookup(map[string]string{
			"DB_DSN":               "postgres://localhost/db",
			"ENV":                  "production",
			"TELEGRAM_TOKEN":       "123:abc",
			"LOOKAHEAD_DAYS":       "90",
			"BUSINESS_HOURS_START": "09:30",
			"BUSINESS_HOURS_END":   "18:00",
			"SUBSTITUTION_POLICY":  "ROOT",
			"DB_MAX_CONNS":         "4",
		}))
		require.NoError(t, err)

		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, 90, cfg.LookaheadDays)
		assert.Equal(t, model.NewTimeOfDay(9, 30), cfg.BusinessHoursStart)
		assert.Equal(t, model.SubstitutionRoot, cfg.SubstitutionPolicy)
		assert.Equal(t, int32(4), cfg.DBMaxConns)
		assert.True(t, cfg.BotEnabled())
	})

	cases := map[string]map[string]string{
		"missing dsn":    {},
		"bad policy":     {"DB_DSN": "x", "SUBSTITUTION_POLICY": "cascade"},
		"bad lookahead":  {"DB_DSN": "x", "LOOKAHEAD_DAYS": "soon"},
		"zero lookahead": {"DB_DSN": "x", "LOOKAHEAD_DAYS": "0"},
		"bad hours":      {"DB_DSN": "x", "BUSINESS_HOURS_START": "8am"},
		"inverted hours": {"DB_DSN": "x", "BUSINESS_HOURS_START": "18:00", "BUSINESS_HOURS_END": "09:00"},
		"negative conns": {"DB_DSN": "x", "DB_MAX_CONNS": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromLookup(lookup(env))
			assert.Error(t, err)
		})
	}
}
