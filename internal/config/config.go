package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/warlord-swiss/internal/standings"
)

// Load reads configuration from environment variables and .env file.
// A missing required variable is fatal.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	return cfg
}

// FromEnv builds the configuration from a variable lookup such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var errs []error

	// getEnv reads a required variable.
	getEnv := func(key string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		errs = append(errs, fmt.Errorf("required environment variable %s is not set", key))
		return ""
	}
	optional := func(key, fallback string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return fallback
	}
	number := func(key string, fallback int) int {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return fallback
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw))
			return fallback
		}
		return n
	}

	defaults := standings.DefaultScoring()
	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: optional("MIGRATIONS_DIR", "./migrations"),
		Port:          optional("PORT", "8080"),
		Slack: SlackConfig{
			Token:         getEnv("SLACK_BOT_TOKEN"),
			ChannelID:     getEnv("SLACK_CHANNEL_ID"),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET"),
		},
		Turso: TursoConfig{
			PrimaryURL: optional("TURSO_PRIMARY_URL", ""),
			AuthToken:  optional("TURSO_AUTH_TOKEN", ""),
		},
		ProjectID: optional("GCP_PROJECT", ""),
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET"),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: splitList(optional("CORS_ALLOWED_ORIGINS", "*")),
			RateLimitBurst: number("RATE_LIMIT_BURST", 20),
		},
		Scoring: standings.ScoringPolicy{
			Win:               number("WIN_POINTS", defaults.Win),
			Draw:              number("DRAW_POINTS", defaults.Draw),
			Loss:              number("LOSS_POINTS", defaults.Loss),
			Bye:               number("BYE_POINTS", defaults.Bye),
			ByeVictoryPoints:  number("BYE_VICTORY_POINTS", defaults.ByeVictoryPoints),
			ByeMassacrePoints: number("BYE_MASSACRE_POINTS", defaults.ByeMassacrePoints),
		},
	}

	rps, err := strconv.ParseFloat(optional("RATE_LIMIT_RPS", "10"), 64)
	if err != nil || rps < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be zero or a positive number"))
	}
	cfg.HTTP.RateLimitRPS = rps

	if cfg.Turso.PrimaryURL != "" && cfg.Turso.AuthToken == "" {
		errs = append(errs, errors.New("TURSO_AUTH_TOKEN is required with TURSO_PRIMARY_URL"))
	}
	return cfg, errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
