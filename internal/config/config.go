package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the assessment service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventChannel           string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	SubmissionGracePeriod  time.Duration
	FinalScoreCacheTTL     time.Duration
	AcademicWeight         float64
	BehaviorWeight         float64
	IncludeEmptySubjects   bool
	AnswerRateLimit        int
	UploadMaxMB            int
	CORSAllowOrigins       string
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
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Assessment API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "gema:assessment")
	v.SetDefault("cloudinary.folder", "gema/assessment")
	v.SetDefault("submission.grace_period", "0s")
	v.SetDefault("final_score.cache_ttl", "10m")
	v.SetDefault("scoring.academic_weight", 0.7)
	v.SetDefault("scoring.behavior_weight", 0.3)
	v.SetDefault("scoring.include_empty_subjects", false)
	v.SetDefault("answer.rate_limit", 5)
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("cors.allow_origins", "*")

	grace, err := parseDuration(v, "submission.grace_period", "0s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid submission grace period: %w", err)
	}
	if grace < 0 {
		return Config{}, fmt.Errorf("submission grace period must not be negative")
	}

	ttl, err := parseDuration(v, "final_score.cache_ttl", "10m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid final score cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannel:           v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		SubmissionGracePeriod:  grace,
		FinalScoreCacheTTL:     ttl,
		AcademicWeight:         v.GetFloat64("scoring.academic_weight"),
		BehaviorWeight:         v.GetFloat64("scoring.behavior_weight"),
		IncludeEmptySubjects:   v.GetBool("scoring.include_empty_subjects"),
		AnswerRateLimit:        v.GetInt("answer.rate_limit"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AcademicWeight < 0 || cfg.BehaviorWeight < 0 || cfg.AcademicWeight+cfg.BehaviorWeight <= 0 {
		return Config{}, fmt.Errorf("scoring weights must be non-negative and not both zero")
	}

	if cfg.AnswerRateLimit <= 0 {
		cfg.AnswerRateLimit = 5
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}
