package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Geocoding   GeocodingConfig
	Routing     RoutingConfig
	Matcher     MatcherConfig
	Delivery    DeliveryConfig
	Facilities  FacilitiesConfig
	History     HistoryConfig
	Identity    IdentityConfig
	OTP         OTPConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// GeocodingConfig holds geocoding provider and cache configuration
type GeocodingConfig struct {
	Provider        string
	BaseURL         string
	UserAgent       string
	CountryCode     string
	DefaultCountry  string
	CacheBackend    string
	CacheSize       int
	CacheTTLSeconds int
}

// RoutingConfig holds routing provider configuration
type RoutingConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
}

// MatcherConfig holds the nearest-facility thresholds
type MatcherConfig struct {
	MaxDistanceMeters   float64
	PrefilterFactor     float64
	MaxCandidates       int
	EarlyExitMeters     float64
	ColdStartStopMeters float64
	BatchSize           int
}

// DeliveryConfig holds delivery workflow configuration
type DeliveryConfig struct {
	DefaultLatitude     float64
	DefaultLongitude    float64
	RegionHint          string
	RouteTimeoutSeconds int
	HistoryKey          string
}

// FacilitiesConfig holds facility directory configuration
type FacilitiesConfig struct {
	Source        string
	DirectoryPath string
}

// HistoryConfig holds accepted-request history configuration
type HistoryConfig struct {
	Backend string
}

// IdentityConfig holds identity provider configuration
type IdentityConfig struct {
	Provider          string
	BaseURL           string
	APIKey            string
	SessionTTLSeconds int
}

// OTPConfig holds one-time-code service configuration
type OTPConfig struct {
	Host            string
	Port            int
	SystemAPIKey    string
	AllowedOrigin   string
	TrustProxy      bool
	CodeLength      int
	TTLSeconds      int
	CooldownSeconds int
	MaxAttempts     int
	Store           string
	HashCost        int
	TokenSecret     string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPass        string
	SMTPFrom        string
	TwilioSID       string
	TwilioToken     string
	TwilioFrom      string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first but never overrides variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "bloodconnect"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Geocoding: GeocodingConfig{
			Provider:        getEnv("GEOCODING_PROVIDER", "nominatim"),
			BaseURL:         getEnv("GEOCODING_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:       getEnv("GEOCODING_USER_AGENT", "BloodBankDeliveryApp/1.0"),
			CountryCode:     getEnv("GEOCODING_COUNTRY_CODE", "in"),
			DefaultCountry:  getEnv("GEOCODING_DEFAULT_COUNTRY", "India"),
			CacheBackend:    getEnv("GEOCODING_CACHE", "memory"),
			CacheSize:       getEnvAsInt("GEOCODING_CACHE_SIZE", 4096),
			CacheTTLSeconds: getEnvAsInt("GEOCODING_CACHE_TTL_SECONDS", 60*60*24*30),
		},
		Routing: RoutingConfig{
			Provider: getEnv("ROUTING_PROVIDER", "graphhopper"),
			BaseURL:  getEnv("ROUTING_BASE_URL", "https://graphhopper.com/api/1"),
			APIKey:   getEnv("ROUTING_API_KEY", ""),
		},
		Matcher: MatcherConfig{
			MaxDistanceMeters:   getEnvAsFloat("MATCHER_MAX_DISTANCE_METERS", 10000),
			PrefilterFactor:     getEnvAsFloat("MATCHER_PREFILTER_FACTOR", 1.5),
			MaxCandidates:       getEnvAsInt("MATCHER_MAX_CANDIDATES", 30),
			EarlyExitMeters:     getEnvAsFloat("MATCHER_EARLY_EXIT_METERS", 2000),
			ColdStartStopMeters: getEnvAsFloat("MATCHER_COLD_START_STOP_METERS", 5000),
			BatchSize:           getEnvAsInt("MATCHER_BATCH_SIZE", 5),
		},
		Delivery: DeliveryConfig{
			DefaultLatitude:     getEnvAsFloat("DELIVERY_DEFAULT_LAT", 17.3850),
			DefaultLongitude:    getEnvAsFloat("DELIVERY_DEFAULT_LON", 78.4867),
			RegionHint:          getEnv("DELIVERY_REGION_HINT", "Andhra Pradesh, India"),
			RouteTimeoutSeconds: getEnvAsInt("DELIVERY_ROUTE_TIMEOUT_SECONDS", 30),
			HistoryKey:          getEnv("DELIVERY_HISTORY_KEY", "default"),
		},
		Facilities: FacilitiesConfig{
			Source:        getEnv("FACILITY_SOURCE", "json"),
			DirectoryPath: getEnv("FACILITY_DIRECTORY_PATH", "data/blood_banks.json"),
		},
		History: HistoryConfig{
			Backend: getEnv("HISTORY_BACKEND", "memory"),
		},
		Identity: IdentityConfig{
			Provider:          getEnv("IDENTITY_PROVIDER", "mock"),
			BaseURL:           getEnv("IDENTITY_BASE_URL", "https://identitytoolkit.googleapis.com/v1"),
			APIKey:            getEnv("IDENTITY_API_KEY", ""),
			SessionTTLSeconds: getEnvAsInt("SESSION_TTL_SECONDS", 60*60*12),
		},
		OTP: OTPConfig{
			Host:            getEnv("OTP_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("OTP_PORT", 4000),
			SystemAPIKey:    getEnv("SYSTEM_API_KEY", ""),
			AllowedOrigin:   getEnv("CORS_ORIGIN", "http://localhost:5173"),
			TrustProxy:      getEnvAsBool("OTP_TRUST_PROXY", false),
			CodeLength:      getEnvAsInt("OTP_LENGTH", 6),
			TTLSeconds:      getEnvAsInt("OTP_TTL_SEC", 300),
			CooldownSeconds: getEnvAsInt("OTP_REQUEST_COOLDOWN_SEC", 30),
			MaxAttempts:     getEnvAsInt("MAX_OTP_ATTEMPTS", 5),
			Store:           getEnv("OTP_STORE", "memory"),
			HashCost:        getEnvAsInt("OTP_HASH_COST", 10),
			TokenSecret:     getEnv("OTP_TOKEN_SECRET", ""),
			SMTPHost:        getEnv("SMTP_HOST", ""),
			SMTPPort:        getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:        getEnv("SMTP_USER", ""),
			SMTPPass:        getEnv("SMTP_PASS", ""),
			SMTPFrom:        getEnv("SMTP_FROM", "no-reply@example.com"),
			TwilioSID:       getEnv("TWILIO_SID", ""),
			TwilioToken:     getEnv("TWILIO_TOKEN", ""),
			TwilioFrom:      getEnv("TWILIO_FROM", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "bloodconnect-delivery"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if cfg.OTP.CodeLength < 4 || cfg.OTP.CodeLength > 10 {
		return nil, fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", cfg.OTP.CodeLength)
	}
	if cfg.Matcher.BatchSize <= 0 {
		return nil, fmt.Errorf("MATCHER_BATCH_SIZE must be positive, got %d", cfg.Matcher.BatchSize)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DatabaseURL returns the PostgreSQL connection URL used by migrations
func (c *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
