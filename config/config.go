package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"StoryVault/repositories"
	"StoryVault/storage"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr  string
	LogLevel  string
	JWTSecret string
	DB        repositories.DBConfig
	Storage   StorageConfig
	BackupKey string
	Reconcile ReconcileConfig

	parseErrs []error
}

type ReconcileConfig struct {
	Interval time.Duration
	Prune    bool
}

type StorageConfig struct {
	Type string
	Dir  string
	S3   storage.S3Config
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Error loading .env file: %v", err)
	}

	cfg := &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		BackupKey: os.Getenv("BACKUP_ENCRYPTION_SECRET"),
		DB: repositories.DBConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       getEnv("DB_NAME", "storyvault"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "storyvault.db"),
		},
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", "local"),
			Dir:  getEnv("STORAGE_DIR", "./archives"),
			S3: storage.S3Config{
				Bucket:          os.Getenv("S3_BUCKET"),
				Region:          os.Getenv("S3_REGION"),
				Endpoint:        os.Getenv("S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			},
		},
	}

	if raw := getEnv("ARCHIVE_RECONCILE_INTERVAL", "0s"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval < 0 {
			cfg.invalid("ARCHIVE_RECONCILE_INTERVAL", raw)
		}
		cfg.Reconcile.Interval = interval
	}
	if raw := getEnv("ARCHIVE_RECONCILE_PRUNE", "false"); raw != "" {
		prune, err := strconv.ParseBool(raw)
		if err != nil {
			cfg.invalid("ARCHIVE_RECONCILE_PRUNE", raw)
		}
		cfg.Reconcile.Prune = prune
	}

	if cfg.Storage.Type == "r2" && cfg.Storage.S3.Endpoint == "" {
		if account := os.Getenv("R2_ACCOUNT_ID"); account != "" {
			cfg.Storage.S3.Endpoint = storage.R2Endpoint(account)
		}
	}

	return cfg
}

func (c *Config) invalid(key, raw string) {
	logrus.Warnf("Invalid %s %q", key, raw)
	c.parseErrs = append(c.parseErrs, fmt.Errorf("invalid %s %q", key, raw))
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	if len(c.parseErrs) > 0 {
		return errors.Join(c.parseErrs...)
	}

	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.Dir == "" {
			return errors.New("STORAGE_DIR is required for local storage")
		}
	case "s3", "r2":
		if err := c.Storage.S3.Validate(); err != nil {
			return fmt.Errorf("invalid %s storage configuration: %w", c.Storage.Type, err)
		}
		if c.Storage.Type == "r2" && c.Storage.S3.Endpoint == "" {
			return errors.New("R2_ACCOUNT_ID or S3_ENDPOINT is required for r2 storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.Storage.Type)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// ConfigureLogging applies the JSON formatter and the configured level.
func (c *Config) ConfigureLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// getEnv retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
