package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	EnvDev     = "DEV"
	EnvStaging = "STAGING"
	EnvProd    = "PROD"

	defaultSaltRounds = 10
)

type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	Env           string `json:"-"`
	DatabaseUrl   string `json:"-"`
	RedisUrl      string `json:"-"`
	EncryptionKey string `json:"-"`
	SaltRounds    int    `json:"-"`

	Tokens struct {
		AccessSecret          []byte `json:"-"`
		RefreshSecret         []byte `json:"-"`
		AccessLifetimeMinutes int    `json:"access_lifetime_minutes"`
		RefreshLifetimeDays   int    `json:"refresh_lifetime_days"`
	} `json:"tokens"`

	Cache struct {
		TTLSeconds int `json:"ttl_seconds"`
	} `json:"cache"`

	S3 struct {
		Region        string `json:"region"`
		Bucket        string `json:"bucket"`
		Endpoint      string `json:"endpoint"`
		CloudfrontUrl string `json:"cloudfront_url"`
		AccessKey     string `json:"-"`
		SecretKey     string `json:"-"`
	} `json:"s3"`

	Cors struct {
		Origins []string `json:"origins"`
	} `json:"cors"`

	Retry struct {
		MaxRetries    uint64 `json:"max_retries"`
		InitialWaitMs int    `json:"initial_wait_ms"`
	} `json:"retry"`
}

/* Load reads the JSON part of the config from filePath and fills secrets
 * and per-deploy values from the environment. Env values win over JSON. */
func Load(filePath string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", filePath, err)
	}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", filePath, err)
	}

	cfg.Env = os.Getenv("GO_ENV")
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	cfg.RedisUrl = os.Getenv("REDIS_URL")
	cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")
	cfg.Tokens.AccessSecret = []byte(os.Getenv("ACCESS_TOKEN_SECRET"))
	cfg.Tokens.RefreshSecret = []byte(os.Getenv("REFRESH_TOKEN_SECRET"))
	cfg.S3.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.S3.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	// SALT_ROUNDS falls back to 10 when unset or garbage
	cfg.SaltRounds = envInt("SALT_ROUNDS", defaultSaltRounds)
	if cfg.SaltRounds <= 0 {
		cfg.SaltRounds = defaultSaltRounds
	}
	cfg.Tokens.AccessLifetimeMinutes = envInt("ACCESS_TOKEN_LIFETIME_MINUTES", cfg.Tokens.AccessLifetimeMinutes)
	cfg.Tokens.RefreshLifetimeDays = envInt("REFRESH_TOKEN_LIFETIME_DAYS", cfg.Tokens.RefreshLifetimeDays)

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(filePath string) *Config {
	cfg, err := Load(filePath)
	if err != nil {
		log.Fatal("Config loading failed with error - " + err.Error())
	}
	return cfg
}

func WriteTemplate(filePath string) {
	cfg := &Config{}
	cfg.applyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatal("Config parsing failed with error - " + err.Error())
	}
	err = os.WriteFile(filePath, data, 0666)
	if err != nil {
		log.Fatal("Failed to save config tempate with error - " + err.Error())
	}
}

// EnvFile picks the dotenv file for the given GO_ENV value.
func EnvFile(env string) string {
	switch env {
	case EnvProd:
		return ".prod.env"
	case EnvStaging:
		return ".staging.env"
	default:
		return ".dev.env"
	}
}

func (cfg *Config) Validate() error {
	var errs []error
	if len(cfg.Tokens.AccessSecret) == 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if len(cfg.Tokens.RefreshSecret) == 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if len(cfg.Tokens.AccessSecret) > 0 && string(cfg.Tokens.AccessSecret) == string(cfg.Tokens.RefreshSecret) {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if cfg.EncryptionKey == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required"))
	}
	if cfg.Tokens.AccessLifetimeMinutes <= 0 || cfg.Tokens.RefreshLifetimeDays <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	return errors.Join(errs...)
}

func (cfg *Config) IsProduction() bool {
	return cfg.Env == EnvProd
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.Env == EnvDev
}

func (cfg *Config) AccessLifetime() time.Duration {
	return time.Duration(cfg.Tokens.AccessLifetimeMinutes) * time.Minute
}

func (cfg *Config) RefreshLifetime() time.Duration {
	return time.Duration(cfg.Tokens.RefreshLifetimeDays) * 24 * time.Hour
}

func (cfg *Config) CacheTTL() time.Duration {
	return time.Duration(cfg.Cache.TTLSeconds) * time.Second
}

func (cfg *Config) RetryInitialWait() time.Duration {
	return time.Duration(cfg.Retry.InitialWaitMs) * time.Millisecond
}

func (cfg *Config) applyDefaults() {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.Tokens.AccessLifetimeMinutes == 0 {
		cfg.Tokens.AccessLifetimeMinutes = 15
	}
	if cfg.Tokens.RefreshLifetimeDays == 0 {
		cfg.Tokens.RefreshLifetimeDays = 7
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 60 * 5
	}
	if len(cfg.Cors.Origins) == 0 {
		cfg.Cors.Origins = []string{"http://localhost:3000"}
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.InitialWaitMs == 0 {
		cfg.Retry.InitialWaitMs = 50
	}
}

func envInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
