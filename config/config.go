package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"smart-notes/llm"
	"smart-notes/logging"
)

// Config holds the runtime settings of the service.
type Config struct {
	Port        string
	DatabaseURL string
	GitHubToken string
	LLMEndpoint string
	LLMModel    string
	LLMTimeout  time.Duration
	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

// SetDefaults registers every key on v so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("database_url", "")
	v.SetDefault("github_token", "")
	v.SetDefault("llm_endpoint", llm.DefaultEndpoint)
	v.SetDefault("llm_model", llm.DefaultModel)
	v.SetDefault("llm_timeout", llm.DefaultTimeout)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("cors_origins", "http://localhost:3000")
}

// LoadDotEnv reads environment variables from the given files, or from .env
// when none are named. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load resolves the settings from v. Flags bound to v take precedence
// over the environment, which takes precedence over the defaults.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Port:        strings.TrimSpace(v.GetString("port")),
		DatabaseURL: strings.TrimSpace(v.GetString("database_url")),
		GitHubToken: strings.TrimSpace(v.GetString("github_token")),
		LLMEndpoint: v.GetString("llm_endpoint"),
		LLMModel:    v.GetString("llm_model"),
		LLMTimeout:  v.GetDuration("llm_timeout"),
		LogLevel:    strings.ToLower(v.GetString("log_level")),
		LogFormat:   strings.ToLower(v.GetString("log_format")),
		CORSOrigins: splitList(v.GetString("cors_origins")),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q: want console or json", c.LogFormat)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("invalid LLM_TIMEOUT %s", c.LLMTimeout)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// LLM returns the client settings for the completion endpoint.
func (c Config) LLM() llm.Config {
	return llm.Config{
		Token:    c.GitHubToken,
		Endpoint: c.LLMEndpoint,
		Model:    c.LLMModel,
		Timeout:  c.LLMTimeout,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
