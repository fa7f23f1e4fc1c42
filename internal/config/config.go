package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all decisionos configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Local    LocalConfig
	LLM      LLMConfig
	Auth     AuthConfig
	Profile  ProfileConfig
	Log      LogConfig
}

type ServerConfig struct {
	Bind string
	Port int
}

type DatabaseConfig struct {
	Path string
}

// LocalConfig configures the device-scoped store used when no session is present.
type LocalConfig struct {
	RedisURL  string // empty disables local mode
	Namespace string
}

type LLMConfig struct {
	Provider     string // "openai", "anthropic", "gemini", "ollama"
	Model        string
	OpenAIKey    string
	AnthropicKey string
	GeminiKey    string
	OllamaURL    string
	OllamaModel  string
}

type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	SessionTTL time.Duration
}

type ProfileConfig struct {
	// RefreshTimeout bounds the background profile refresh fired after a save.
	RefreshTimeout time.Duration
}

type LogConfig struct {
	Mode string // "dev" or "prod"
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Local: LocalConfig{
			RedisURL:  "redis://localhost:6379/0",
			Namespace: "decision-os-decisions",
		},
		LLM: LLMConfig{
			OllamaURL:   "http://localhost:11434",
			OllamaModel: "llama3.2",
		},
		Auth: AuthConfig{
			Issuer:     "decisionos",
			SessionTTL: 24 * time.Hour,
		},
		Profile: ProfileConfig{
			RefreshTimeout: 8 * time.Second,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// Load returns Default() overlaid with an optional .env file and the process
// environment. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()
	cfg.Server.Bind = getenv("DECISIONOS_BIND", cfg.Server.Bind)
	cfg.Server.Port = getenvInt("DECISIONOS_PORT", cfg.Server.Port)
	cfg.Database.Path = getenv("DECISIONOS_DB", cfg.Database.Path)

	if v, ok := os.LookupEnv("REDIS_URL"); ok {
		cfg.Local.RedisURL = v
	}
	cfg.Local.Namespace = getenv("DECISIONOS_LOCAL_NAMESPACE", cfg.Local.Namespace)

	cfg.LLM.Provider = getenv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getenv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.OpenAIKey = getenv("OPENAI_API_KEY", cfg.LLM.OpenAIKey)
	cfg.LLM.AnthropicKey = getenv("ANTHROPIC_API_KEY", cfg.LLM.AnthropicKey)
	cfg.LLM.GeminiKey = getenv("GEMINI_API_KEY", cfg.LLM.GeminiKey)
	cfg.LLM.OllamaURL = getenv("OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.OllamaModel = getenv("OLLAMA_MODEL", cfg.LLM.OllamaModel)
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = cfg.LLM.DetectProvider()
	}

	cfg.Auth.JWTSecret = getenv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Issuer = getenv("JWT_ISSUER", cfg.Auth.Issuer)
	cfg.Auth.SessionTTL = time.Duration(getenvInt("SESSION_TTL_HOURS", int(cfg.Auth.SessionTTL/time.Hour))) * time.Hour

	cfg.Profile.RefreshTimeout = time.Duration(getenvInt("PROFILE_REFRESH_TIMEOUT_SECONDS", int(cfg.Profile.RefreshTimeout/time.Second))) * time.Second

	cfg.Log.Mode = getenv("LOG_MODE", cfg.Log.Mode)
	return cfg
}

// DetectProvider picks the first provider with a configured key, in the order
// openai, anthropic, gemini. Returns "" when none is configured.
func (c LLMConfig) DetectProvider() string {
	switch {
	case c.OpenAIKey != "":
		return "openai"
	case c.AnthropicKey != "":
		return "anthropic"
	case c.GeminiKey != "":
		return "gemini"
	default:
		return ""
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
