package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 600*time.Second, cfg.Session.DemoTTL)
	assert.Equal(t, 60*time.Second, cfg.Session.DemoWarning)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 120, cfg.Security.RateLimitRPM)
	assert.Contains(t, cfg.Security.CORSAllowedOrigins, "http://localhost:3000")
}

func TestLoadFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("EDU_ENV", "prod")
	t.Setenv("EDU_HTTP_ADDR", ":9999")
	t.Setenv("EDU_DEMO_SESSION_TTL", "5m")
	t.Setenv("EDU_CORS_ALLOWED_ORIGINS", "https://app.eduhub.dev,https://eduhub.dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.Session.DemoTTL)
	assert.Equal(t, []string{"https://app.eduhub.dev", "https://eduhub.dev"}, cfg.Security.CORSAllowedOrigins)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  string
		val  string
	}{
		{"bad env", "EDU_ENV", "staging"},
		{"zero demo ttl", "EDU_DEMO_SESSION_TTL", "0s"},
		{"warning above ttl", "EDU_DEMO_WARNING_THRESHOLD", "20m"},
		{"bcrypt cost", "EDU_BCRYPT_COST", "99"},
		{"bad log level", "EDU_LOG_LEVEL", "loud"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			t.Setenv(tc.env, tc.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
