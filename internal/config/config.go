package config

import (
	"strings"
	"time"

	"github.com/erpsystem/doccheck/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration for the CLI and the verification service.
type Config struct {
	Server    ServerConfig
	Shop      ShopConfig
	Verify    VerifyConfig
	Templates TemplatesConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	Keycloak  KeycloakConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ShopConfig describes how to reach the shop GraphQL endpoint.
type ShopConfig struct {
	GraphQLURL string
	Token      string
	// JWTSecret, when set, is used to mint a short-lived HS256 service token per request.
	JWTSecret string
	Timeout   time.Duration
}

// VerifyConfig holds the defaults of a verification run.
type VerifyConfig struct {
	OrderID      string
	TargetStatus string
	Timeout      time.Duration
	PollInterval time.Duration
	MinDocuments int
	ProbeTimeout time.Duration
}

type TemplatesConfig struct {
	BaseURL    string
	Dir        string
	Keys       []string
	OutDir     string
	ModifiedBy string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	LatestTTL time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	URLExpiry time.Duration
}

type KeycloakConfig struct {
	URL           string
	Realm         string
	ClientID      string
	AllowInsecure bool
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

var defaultTemplateKeys = []string{
	"invoice",
	"order-confirmation",
	"shipping-notice",
	"delivery-note",
	"packing-slip",
	"cancellation",
	"refund",
}

// DefaultTemplateKeys returns a copy of the template keys exercised by sync and generate.
func DefaultTemplateKeys() []string {
	return append([]string(nil), defaultTemplateKeys...)
}

// LoadConfig loads configuration from environment variables and an optional .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5020")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")

	v.SetDefault("SHOP_GRAPHQL_URL", "http://localhost:5003/graphql")
	v.SetDefault("SHOP_TIMEOUT_SECONDS", 10)

	v.SetDefault("VERIFY_TARGET_STATUS", "DELIVERED")
	v.SetDefault("VERIFY_TIMEOUT_SECONDS", 30)
	v.SetDefault("VERIFY_POLL_INTERVAL_SECONDS", 1)
	v.SetDefault("VERIFY_MIN_DOCUMENTS", 1)
	v.SetDefault("VERIFY_PROBE_TIMEOUT_SECONDS", 5)

	v.SetDefault("TEMPLATES_BASE_URL", "http://localhost:8087")
	v.SetDefault("TEMPLATES_DIR", "templates")
	v.SetDefault("TEMPLATES_MODIFIED_BY", "template-sync-script")

	v.SetDefault("MONGODB_DATABASE", "doccheck")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_LATEST_TTL_SECONDS", 86400)
	v.SetDefault("MINIO_BUCKET", "doccheck-samples")
	v.SetDefault("MINIO_URL_EXPIRY_MINUTES", 60)

	v.SetDefault("RATE_LIMIT_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Shop: ShopConfig{
			GraphQLURL: v.GetString("SHOP_GRAPHQL_URL"),
			Token:      v.GetString("SHOP_TOKEN"),
			JWTSecret:  v.GetString("SHOP_JWT_SECRET"),
			Timeout:    seconds(v, "SHOP_TIMEOUT_SECONDS"),
		},
		Verify: VerifyConfig{
			OrderID:      v.GetString("VERIFY_ORDER_ID"),
			TargetStatus: v.GetString("VERIFY_TARGET_STATUS"),
			Timeout:      seconds(v, "VERIFY_TIMEOUT_SECONDS"),
			PollInterval: seconds(v, "VERIFY_POLL_INTERVAL_SECONDS"),
			MinDocuments: v.GetInt("VERIFY_MIN_DOCUMENTS"),
			ProbeTimeout: seconds(v, "VERIFY_PROBE_TIMEOUT_SECONDS"),
		},
		Templates: TemplatesConfig{
			BaseURL:    strings.TrimRight(v.GetString("TEMPLATES_BASE_URL"), "/"),
			Dir:        v.GetString("TEMPLATES_DIR"),
			Keys:       splitList(v.GetString("TEMPLATES_KEYS")),
			OutDir:     v.GetString("TEMPLATES_OUT_DIR"),
			ModifiedBy: v.GetString("TEMPLATES_MODIFIED_BY"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  seconds(v, "MONGODB_TIMEOUT"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("REDIS_HOST"),
			Port:      v.GetString("REDIS_PORT"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			LatestTTL: seconds(v, "REDIS_LATEST_TTL_SECONDS"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			URLExpiry: time.Duration(v.GetInt("MINIO_URL_EXPIRY_MINUTES")) * time.Minute,
		},
		Keycloak: KeycloakConfig{
			URL:           v.GetString("KEYCLOAK_URL"),
			Realm:         v.GetString("KEYCLOAK_REALM"),
			ClientID:      v.GetString("KEYCLOAK_CLIENT_ID"),
			AllowInsecure: v.GetBool("ALLOW_INSECURE_TOKEN"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if len(cfg.Templates.Keys) == 0 {
		cfg.Templates.Keys = DefaultTemplateKeys()
	}
	if cfg.Keycloak.AllowInsecure && cfg.Server.Environment == "production" {
		logger.Warn("ALLOW_INSECURE_TOKEN is set in production; bearer tokens will not be verified")
	}

	return cfg, nil
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetFloat64(key) * float64(time.Second))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
