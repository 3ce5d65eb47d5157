// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (document store, rate limiting)
	RedisURL string `koanf:"redis_url"`

	// JWT Authentication
	JWTSecret         string `koanf:"jwt_secret"`
	JWTSecretPrevious string `koanf:"jwt_secret_previous"` // Optional, for key rotation

	// Google Places
	GoogleMapsAPIKey string `koanf:"google_maps_api_key"`

	// IP-based geolocation fallback
	IPLookupURL string `koanf:"ip_lookup_url"`

	// Fallback coordinate used when both device and IP lookup fail
	DefaultLatitude  float64 `koanf:"default_latitude"`
	DefaultLongitude float64 `koanf:"default_longitude"`

	// CORS
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"` // Comma-separated list

	// S3-compatible object storage for visit photo uploads
	S3BucketName      string `koanf:"s3_bucket_name"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3MaxUploadSizeMB int    `koanf:"s3_max_upload_size_mb"` // Default: 10MB

	// Observability
	TracingEnabled   bool   `koanf:"tracing_enabled"`
	OTLPEndpoint     string `koanf:"otlp_endpoint"`
	ProfilingEnabled bool   `koanf:"profiling_enabled"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL      = errors.New("DATABASE_URL is required")
	ErrMissingRedisURL         = errors.New("REDIS_URL is required")
	ErrMissingJWTSecret        = errors.New("JWT_SECRET is required")
	ErrMissingGoogleMapsAPIKey = errors.New("GOOGLE_MAPS_API_KEY is required")
	ErrMissingS3BucketName     = errors.New("S3_BUCKET_NAME is required")
	ErrMissingS3AccessKeyID    = errors.New("S3_ACCESS_KEY_ID is required")
	ErrMissingS3SecretKey      = errors.New("S3_SECRET_ACCESS_KEY is required")
	ErrMissingS3Endpoint       = errors.New("S3_ENDPOINT is required")
	ErrInvalidPort             = errors.New("PORT must be a valid integer")
	ErrInvalidCoordinate       = errors.New("default coordinate is out of range")
)

// Default values for non-secret configuration.
const (
	DefaultPort            = 8080
	DefaultEnv             = "development"
	DefaultIPLookupURL     = "http://ip-api.com/json"
	DefaultLatitude        = 37.7749
	DefaultLongitude       = -122.4194
	DefaultMaxUploadSizeMB = 10
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try PLATEFINDER_PORT first, then PORT for deployments that only set the latter
	port, portErr := getEnvIntOrDefaultMulti([]string{"PLATEFINDER_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	maxUploadSize, uploadSizeErr := getEnvIntOrDefault("S3_MAX_UPLOAD_SIZE_MB", k.Int("s3_max_upload_size_mb"), DefaultMaxUploadSizeMB)
	if uploadSizeErr != nil {
		loadErrs = append(loadErrs, uploadSizeErr)
	}

	defaultLat, latErr := getEnvFloatOrDefault("DEFAULT_LATITUDE", k.Float64("default_latitude"), DefaultLatitude)
	if latErr != nil {
		loadErrs = append(loadErrs, latErr)
	}
	defaultLng, lngErr := getEnvFloatOrDefault("DEFAULT_LONGITUDE", k.Float64("default_longitude"), DefaultLongitude)
	if lngErr != nil {
		loadErrs = append(loadErrs, lngErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:               port,
		Env:                getEnvOrDefaultMulti([]string{"PLATEFINDER_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:        getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:           getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		JWTSecret:          getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTSecretPrevious:  getEnvOrKoanf("JWT_SECRET_PREVIOUS", k, "jwt_secret_previous"),
		GoogleMapsAPIKey:   getEnvOrKoanf("GOOGLE_MAPS_API_KEY", k, "google_maps_api_key"),
		IPLookupURL:        getEnvOrDefault("IP_LOOKUP_URL", k.String("ip_lookup_url"), DefaultIPLookupURL),
		DefaultLatitude:    defaultLat,
		DefaultLongitude:   defaultLng,
		CORSAllowedOrigins: getEnvOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		S3BucketName:       getEnvOrKoanf("S3_BUCKET_NAME", k, "s3_bucket_name"),
		S3AccessKeyID:      getEnvOrKoanf("S3_ACCESS_KEY_ID", k, "s3_access_key_id"),
		S3SecretAccessKey:  getEnvOrKoanf("S3_SECRET_ACCESS_KEY", k, "s3_secret_access_key"),
		S3Endpoint:         getEnvOrKoanf("S3_ENDPOINT", k, "s3_endpoint"),
		S3MaxUploadSizeMB:  maxUploadSize,
		TracingEnabled:     getEnvBool("TRACING_ENABLED", k, "tracing_enabled"),
		OTLPEndpoint:       getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
		ProfilingEnabled:   getEnvBool("PROFILING_ENABLED", k, "profiling_enabled"),
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvBool returns the environment variable as bool if set, otherwise the koanf value.
// Env var takes precedence over file config.
func getEnvBool(envKey string, k *koanf.Koanf, koanfKey string) bool {
	result := false
	if k.Exists(koanfKey) {
		result = k.Bool(koanfKey)
	}
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			result = true
		case "false", "0", "no", "off":
			result = false
		}
	}
	return result
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// Note: A value of 0 from a YAML file will fall back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidPort)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.RedisURL == "" {
		errs = append(errs, ErrMissingRedisURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.GoogleMapsAPIKey == "" {
		errs = append(errs, ErrMissingGoogleMapsAPIKey)
	}

	if c.DefaultLatitude < -90 || c.DefaultLatitude > 90 ||
		c.DefaultLongitude < -180 || c.DefaultLongitude > 180 {
		errs = append(errs, ErrInvalidCoordinate)
	}

	// S3 configuration is optional. Only validate fields if any S3 value is set.
	if c.S3BucketName != "" || c.S3AccessKeyID != "" || c.S3SecretAccessKey != "" || c.S3Endpoint != "" {
		if c.S3BucketName == "" {
			errs = append(errs, ErrMissingS3BucketName)
		}
		if c.S3AccessKeyID == "" {
			errs = append(errs, ErrMissingS3AccessKeyID)
		}
		if c.S3SecretAccessKey == "" {
			errs = append(errs, ErrMissingS3SecretKey)
		}
		if c.S3Endpoint == "" {
			errs = append(errs, ErrMissingS3Endpoint)
		}
	}

	return errs
}

// UploadsEnabled reports whether the S3 upload configuration is fully present.
func (c *Config) UploadsEnabled() bool {
	return c.S3BucketName != "" && c.S3AccessKeyID != "" &&
		c.S3SecretAccessKey != "" && c.S3Endpoint != ""
}

// AllowedOrigins splits the comma-separated CORS origin list.
// Returns nil when unset so the CORS middleware falls back to its defaults.
func (c *Config) AllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                  fmt.Sprintf("%d", c.Port),
		"env":                   c.Env,
		"database_url":          maskDatabaseURL(c.DatabaseURL),
		"redis_url":             maskDatabaseURL(c.RedisURL),
		"jwt_secret":            maskSecret(c.JWTSecret),
		"jwt_secret_previous":   maskSecret(c.JWTSecretPrevious),
		"google_maps_api_key":   maskSecret(c.GoogleMapsAPIKey),
		"ip_lookup_url":         c.IPLookupURL,
		"default_latitude":      fmt.Sprintf("%g", c.DefaultLatitude),
		"default_longitude":     fmt.Sprintf("%g", c.DefaultLongitude),
		"cors_allowed_origins":  c.CORSAllowedOrigins,
		"s3_bucket_name":        c.S3BucketName,
		"s3_access_key_id":      maskSecret(c.S3AccessKeyID),
		"s3_secret_access_key":  maskSecret(c.S3SecretAccessKey),
		"s3_endpoint":           c.S3Endpoint,
		"s3_max_upload_size_mb": fmt.Sprintf("%d", c.S3MaxUploadSizeMB),
		"tracing_enabled":       fmt.Sprintf("%t", c.TracingEnabled),
		"otlp_endpoint":         c.OTLPEndpoint,
		"profiling_enabled":     fmt.Sprintf("%t", c.ProfilingEnabled),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL.
// Supports postgres://, postgresql://, and redis:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	// Simple approach: find :// and then mask between : and @
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
