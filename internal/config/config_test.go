package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 15, cfg.Interview.MaxQuestions)
	assert.Equal(t, 1.5, cfg.Interview.ExtensionFactor)
	assert.Equal(t, 0.85, cfg.Interview.HighConfidence)
	assert.Equal(t, time.Hour, cfg.Interview.SessionTTL)
	assert.Empty(t, cfg.Interview.EmergencyKeywords)
	assert.Equal(t, 30*time.Second, cfg.Infermedica.Timeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INTERVIEW_MAX_QUESTIONS", "20")
	t.Setenv("STOP_DOMINANCE_GAP", "0.5")
	t.Setenv("REQUIRE_AUTH", "true")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("EMERGENCY_KEYWORDS", "stroke, , sepsis ")
	t.Setenv("INFERMEDICA_CACHE_SIZE", "not-a-number")

	cfg := Load()

	assert.Equal(t, 20, cfg.Interview.MaxQuestions)
	assert.Equal(t, 0.5, cfg.Interview.DominanceGap)
	assert.True(t, cfg.App.RequireAuth)
	assert.Equal(t, 15*time.Minute, cfg.Interview.SessionTTL)
	assert.Equal(t, []string{"stroke", "sepsis"}, cfg.Interview.EmergencyKeywords)
	assert.Equal(t, 512, cfg.Infermedica.CacheSize)
}
