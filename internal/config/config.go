package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the service.
type Config struct {
	AppName      string
	AppEnv       string
	AppPort      string
	DatabaseURL  string
	DatabasePath string
	RedisURL     string

	SchoolName      string
	ReportSource    string
	ClassroomSource string

	RepairInterval  time.Duration
	RepairBatchSize int

	// ZeroScoreCountsMissing preserves the upstream convention that a grade
	// of exactly zero means the work was never really submitted.
	ZeroScoreCountsMissing bool

	AtRiskThreshold int
	AtRiskCacheTTL  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSPULSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ClassPulse API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("school.name", "School")
	v.SetDefault("report.source", "report_export_sync")
	v.SetDefault("classroom.source", "classroom_live_sync")
	v.SetDefault("repair.interval", "5m")
	v.SetDefault("repair.batch_size", 200)
	v.SetDefault("zero_score_counts_missing", true)
	v.SetDefault("at_risk.threshold", 3)
	v.SetDefault("at_risk.cache_ttl", "2m")

	repairInterval, err := time.ParseDuration(v.GetString("repair.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid repair interval: %w", err)
	}

	atRiskTTL, err := time.ParseDuration(v.GetString("at_risk.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid at-risk cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		DatabasePath:           v.GetString("database.path"),
		RedisURL:               v.GetString("redis.url"),
		SchoolName:             v.GetString("school.name"),
		ReportSource:           v.GetString("report.source"),
		ClassroomSource:        v.GetString("classroom.source"),
		RepairInterval:         repairInterval,
		RepairBatchSize:        v.GetInt("repair.batch_size"),
		ZeroScoreCountsMissing: v.GetBool("zero_score_counts_missing"),
		AtRiskThreshold:        v.GetInt("at_risk.threshold"),
		AtRiskCacheTTL:         atRiskTTL,
	}

	if cfg.DatabaseURL == "" && cfg.DatabasePath == "" {
		return Config{}, fmt.Errorf("either database url or database path must be provided")
	}

	if cfg.RepairBatchSize <= 0 {
		cfg.RepairBatchSize = 200
	}

	if cfg.AtRiskThreshold <= 0 {
		cfg.AtRiskThreshold = 3
	}

	return cfg, nil
}
