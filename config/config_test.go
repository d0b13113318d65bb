package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "GITHUB_TOKEN", "LLM_ENDPOINT", "LLM_MODEL", "LLM_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.GitHubToken)
	assert.Equal(t, "https://models.github.ai/inference", cfg.LLMEndpoint)
	assert.Equal(t, "openai/gpt-4.1-mini", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "sqlite://notes.db")
	t.Setenv("GITHUB_TOKEN", " ghp_test ")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,,")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite://notes.db", cfg.DatabaseURL)
	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)

	llmCfg := cfg.LLM()
	assert.Equal(t, "ghp_test", llmCfg.Token)
	assert.Equal(t, 5*time.Second, llmCfg.Timeout)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "8080")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("port", "", "")
	require.NoError(t, fs.Parse([]string{"--port", "9090"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("port", fs.Lookup("port")))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
}

func TestValidate(t *testing.T) {
	valid := Config{Port: "5000", LogLevel: "info", LogFormat: "console", LLMTimeout: time.Second}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Non-numeric port", func(c *Config) { c.Port = "http" }},
		{"Port out of range", func(c *Config) { c.Port = "70000" }},
		{"Unknown log level", func(c *Config) { c.LogLevel = "loud" }},
		{"Unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"Zero timeout", func(c *Config) { c.LLMTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SMART_NOTES_DOTENV_TEST=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SMART_NOTES_DOTENV_TEST") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("SMART_NOTES_DOTENV_TEST"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
