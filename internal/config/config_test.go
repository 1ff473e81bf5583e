package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Audit.Driver)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  readTimeout: 5s
ai:
  provider: Gemini
  model: gemini-1.5-pro
auth:
  apiKeys: [a, b]
audit:
  driver: mysql
  host: db
  user: app
  password: secret
  name: homefix
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("API_KEYS", "x,y,z")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-1.5-pro", cfg.AI.Model)
	assert.Equal(t, "g-key", cfg.APIKey())
	assert.Equal(t, []string{"x", "y", "z"}, cfg.Auth.APIKeys)
	assert.Equal(t, "app:secret@tcp(db:3306)/homefix?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "llama")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai.provider")
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.Audit.Host = "pg"
	cfg.Audit.User = "u"
	cfg.Audit.Password = "p"
	cfg.Audit.Name = "d"
	assert.Equal(t, "host=pg port=5432 user=u password=p dbname=d sslmode=disable", cfg.PostgresDSN())
}

func TestLoad_NoColorAcceptsAnyValue(t *testing.T) {
	t.Setenv("NO_COLOR", "yes")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "yes", cfg.Log.NoColor)
}
