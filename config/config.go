package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider      string // anthropic, openai, ollama
	AnthropicKey     string // API key (X-Api-Key header)
	AnthropicToken   string // OAuth token (Authorization: Bearer header)
	OpenAIKey        string
	LLMModel         string
	OllamaBaseURL    string
	MaxContextTokens int
	OracleTimeout    time.Duration // bound on a single oracle call
	DiscordToken     string
	DataDir          string
	HousekeepCron    string
	DayStart         string // default active-hours window
	DayEnd           string
}

// ConfigDir is where the installed service keeps its configuration.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kairos")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

func Load() *Config {
	_ = godotenv.Load()             // ignore error if no .env
	_ = godotenv.Load(ConfigFile()) // installed-service config, if present

	return &Config{
		LLMProvider:      envOr("LLM_PROVIDER", "anthropic"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken:   os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		OllamaBaseURL:    envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		MaxContextTokens: envOrInt("MAX_CONTEXT_TOKENS", 100000),
		OracleTimeout:    time.Duration(envOrInt("ORACLE_TIMEOUT_SECONDS", 30)) * time.Second,
		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DataDir:          envOr("KAIROS_DATA_DIR", "./kairos-data"),
		HousekeepCron:    envOr("HOUSEKEEP_CRON", "0 0 * * *"),
		DayStart:         envOr("DAY_START", "08:00"),
		DayEnd:           envOr("DAY_END", "23:00"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
