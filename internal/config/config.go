package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir   string   `mapstructure:"MIGRATIONS_DIR"`
	AuthIssuer      string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL     string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience    string   `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey  string   `mapstructure:"AUTH_SIGNING_KEY"`
	DefaultHospital string   `mapstructure:"DEFAULT_HOSPITAL"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int      `mapstructure:"RATE_LIMIT_BURST"`
	KafkaBrokers    []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string   `mapstructure:"KAFKA_TOPIC"`
	NotifyRPS       float64  `mapstructure:"NOTIFY_RPS"`
	NotifyBurst     int      `mapstructure:"NOTIFY_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MIGRATIONS_DIR", "./migrations/tenant")
	v.SetDefault("DEFAULT_HOSPITAL", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("KAFKA_TOPIC", "carelink-events")
	v.SetDefault("NOTIFY_RPS", 5)
	v.SetDefault("NOTIFY_BURST", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("DEFAULT_HOSPITAL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("KAFKA_BROKERS")
	v.BindEnv("KAFKA_TOPIC")
	v.BindEnv("NOTIFY_RPS")
	v.BindEnv("NOTIFY_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.KafkaBrokers == nil {
		brokers := v.GetString("KAFKA_BROKERS")
		if brokers != "" {
			cfg.KafkaBrokers = strings.Split(brokers, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ==========================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active, all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ==========================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// EventsEnabled reports whether the Kafka event stream is configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Validate checks that the configuration is safe to run. Outside development
// mode either AUTH_ISSUER (JWKS validation) or AUTH_SIGNING_KEY (HMAC) must be
// set so that real JWT authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthSigningKey == "" {
		return fmt.Errorf(
			"AUTH_ISSUER or AUTH_SIGNING_KEY must be set when ENV=%q; "+
				"refusing to start without authentication configuration", c.Env)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.EventsEnabled() && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}
