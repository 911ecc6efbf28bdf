package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	awspkg "github.com/olaysco/ecomm-api/pkg/aws"
)

const (
	DriverMongo    = "mongo"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"

	dbURISecret = "product/DB_URI"
)

// Config holds all environment variables for the product API.
type Config struct {
	Port               string
	BaseURL            string
	Env                string
	DBDriver           string
	DBURI              string
	DBName             string
	DynamoTable        string
	RedisURL           string
	CacheTTL           time.Duration
	ProductTopicArn    string
	AllowedOrigins     string
	RateLimitPerMinute int
	UseSecrets         bool
	CloudWatchEnabled  bool
}

type secretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// LoadConfig reads the environment into Config and validates it.
// If AWS_USE_SECRETS=true, DB_URI is read from Secrets Manager and the
// environment value is kept on failure.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "3000"),
		BaseURL:         os.Getenv("BASE_URL"),
		Env:             getEnv("APP_ENV", "development"),
		DBDriver:        getEnv("DB_DRIVER", DriverMongo),
		DBURI:           os.Getenv("DB_URI"),
		DBName:          getEnv("DB_NAME", "ecomm"),
		DynamoTable:     getEnv("DDB_TABLE_PRODUCTS", "Products"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ProductTopicArn: os.Getenv("PRODUCT_SNS_TOPIC_ARN"),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "*"),
		UseSecrets:      os.Getenv("AWS_USE_SECRETS") == "true",

		CloudWatchEnabled: os.Getenv("CLOUDWATCH_ENABLED") == "true",
	}

	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	perMinute, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}
	cfg.RateLimitPerMinute = perMinute

	if cfg.UseSecrets {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			cfg.applySecrets(context.Background(), awspkg.NewSecretsClient(awsCfg))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applySecrets(ctx context.Context, secrets secretGetter) {
	if uri, err := secrets.GetSecret(ctx, dbURISecret); err == nil && uri != "" {
		c.DBURI = uri
	}
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverMongo:
		if c.DBURI == "" {
			return fmt.Errorf("DB_URI is required")
		}
	case DriverDynamoDB:
		if c.DynamoTable == "" {
			return fmt.Errorf("DDB_TABLE_PRODUCTS is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
