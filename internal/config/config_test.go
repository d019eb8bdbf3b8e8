package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, time.Duration(0), cfg.SubmissionGracePeriod)
	require.Equal(t, 10*time.Minute, cfg.FinalScoreCacheTTL)
	require.InDelta(t, 0.7, cfg.AcademicWeight, 1e-9)
	require.InDelta(t, 0.3, cfg.BehaviorWeight, 1e-9)
	require.False(t, cfg.IncludeEmptySubjects)
	require.Equal(t, "gema:assessment", cfg.EventChannel)
	require.Equal(t, "*", cfg.CORSAllowOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_SUBMISSION_GRACE_PERIOD", "90s")
	t.Setenv("GEMA_SCORING_INCLUDE_EMPTY_SUBJECTS", "true")
	t.Setenv("GEMA_APP_PORT", ":9090")
	t.Setenv("GEMA_CORS_ALLOW_ORIGINS", "https://sekolah.example.id")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.SubmissionGracePeriod)
	require.True(t, cfg.IncludeEmptySubjects)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, "https://sekolah.example.id", cfg.CORSAllowOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_SUBMISSION_GRACE_PERIOD", "-1m")
	_, err = Load()
	require.Error(t, err)
}
