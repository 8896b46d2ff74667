package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StoreBackend    string
	MongoDBURI      string
	MongoDBPassword string
	MongoDBDatabase string

	SupabaseURL     string
	SupabaseAnonKey string
	JWTSecret       string
	JWKSURL         string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	AllowedOrigins     []string
	DiscoveryPageLimit int
}

// LoadEnv reads .env.local and then .env when present. Variables already set
// in the process environment win.
func LoadEnv() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),

		StoreBackend:    strings.ToLower(getEnvWithDefault("STORE_BACKEND", StoreMongo)),
		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBPassword: os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase: getEnvWithDefault("MONGODB_DATABASE", "rendez"),

		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey: os.Getenv("SUPABASE_URL_ANON_KEY"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWKSURL:         os.Getenv("JWKS_URL"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		AllowedOrigins: splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	limit, err := strconv.Atoi(getEnvWithDefault("DISCOVERY_PAGE_LIMIT", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		return nil, fmt.Errorf("DISCOVERY_PAGE_LIMIT must be between 1 and 100")
	}
	cfg.DiscoveryPageLimit = limit

	// Validate required fields
	switch cfg.StoreBackend {
	case StoreMongo:
		if cfg.MongoDBURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required")
		}
		if strings.Contains(cfg.MongoDBURI, "<password>") && cfg.MongoDBPassword == "" {
			return nil, fmt.Errorf("MONGODB_PASSWORD is required")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q", StoreMongo, StoreMemory)
	}
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		return nil, fmt.Errorf("JWT_SECRET or JWKS_URL is required")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

// MongoURI returns the connection string with the password placeholder filled.
func (c *Config) MongoURI() string {
	return strings.Replace(c.MongoDBURI, "<password>", c.MongoDBPassword, 1)
}

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
