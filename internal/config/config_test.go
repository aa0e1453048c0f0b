package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GOOGLE_API_KEY", "Google_key", "NAVER_CLIENT_ID", "NAVER_CLIENT_SECRET",
		"HTTP_ADDR", "NEARBY_LIMIT", "NEARBY_RADIUS_M", "NEARBY_PAUSE",
		"REJECT_LATIN_ADDRESSES", "CORS_ORIGINS", "REDIS_URL", "GOOGLE_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("NAVER_CLIENT_ID", "n-id")
	t.Setenv("NAVER_CLIENT_SECRET", "n-secret")
}

func TestLoad(t *testing.T) {
	t.Run("should_report_every_missing_credential", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load()
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Equal(t, "missing GOOGLE_API_KEY, NAVER_CLIENT_ID, NAVER_CLIENT_SECRET", err.Error())
	})

	t.Run("should_fail_when_only_naver_secret_is_missing", func(t *testing.T) {
		clearEnv(t)
		setCredentials(t)
		t.Setenv("NAVER_CLIENT_SECRET", "  ")
		cfg, err := Load()
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Equal(t, "missing NAVER_CLIENT_SECRET", err.Error())
	})

	t.Run("should_accept_legacy_google_key_name", func(t *testing.T) {
		clearEnv(t)
		setCredentials(t)
		t.Setenv("GOOGLE_API_KEY", "")
		t.Setenv("Google_key", "legacy")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "legacy", cfg.Google.APIKey)
	})

	t.Run("should_load_defaults", func(t *testing.T) {
		clearEnv(t)
		setCredentials(t)
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "https://maps.googleapis.com", cfg.Google.BaseURL)
		assert.Equal(t, "ko", cfg.Google.Language)
		assert.Equal(t, "관광지", cfg.Google.QuerySuffix)
		assert.Equal(t, 2000, cfg.Google.NearbyRadiusM)
		assert.Equal(t, 15, cfg.Google.NearbyLimit)
		assert.Equal(t, time.Second, cfg.NearbyPause)
		assert.True(t, cfg.RejectLatinAddresses)
		assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
		assert.Empty(t, cfg.RedisURL)
	})

	t.Run("should_apply_overrides", func(t *testing.T) {
		clearEnv(t)
		setCredentials(t)
		t.Setenv("GOOGLE_BASE_URL", "http://fake-google/")
		t.Setenv("NEARBY_PAUSE", "0s")
		t.Setenv("REJECT_LATIN_ADDRESSES", "false")
		t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://fake-google", cfg.Google.BaseURL)
		assert.Equal(t, time.Duration(0), cfg.NearbyPause)
		assert.False(t, cfg.RejectLatinAddresses)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	})

	t.Run("should_reject_non_positive_limit", func(t *testing.T) {
		clearEnv(t)
		setCredentials(t)
		t.Setenv("NEARBY_LIMIT", "0")
		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.EqualError(t, err, "NEARBY_LIMIT must be positive")
	})
}

func TestGetEnv(t *testing.T) {
	t.Run("should_trim_whitespace", func(t *testing.T) {
		t.Setenv("TEST_KEY", "  value_with_spaces  ")
		assert.Equal(t, "value_with_spaces", getEnv("TEST_KEY", "default"))
	})
}

func TestGetDuration(t *testing.T) {
	t.Run("should_parse_valid_duration", func(t *testing.T) {
		t.Setenv("TEST_DUR", "5s")
		assert.Equal(t, 5*time.Second, getDuration("TEST_DUR", 10*time.Second))
	})

	t.Run("should_return_default_on_invalid_duration", func(t *testing.T) {
		t.Setenv("TEST_DUR", "invalid")
		assert.Equal(t, 10*time.Second, getDuration("TEST_DUR", 10*time.Second))
	})
}

func TestGetBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "nope")
	assert.True(t, getBool("TEST_BOOL", true))

	t.Setenv("TEST_BOOL", "0")
	assert.False(t, getBool("TEST_BOOL", true))
}
