package config

import "github.com/mauv0809/warlord-swiss/internal/standings"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Slack         SlackConfig
	Turso         TursoConfig
	ProjectID     string
	Session       SessionConfig
	HTTP          HTTPConfig
	Scoring       standings.ScoringPolicy
}
type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type SessionConfig struct {
	Secret string
}
type HTTPConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}
