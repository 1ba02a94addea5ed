package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	CORS       CORSConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string
	Version  string
	Port     int
	Env      string
	LogLevel string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AttendanceConfig holds the attendance policy.
type AttendanceConfig struct {
	Timezone               string
	StrictMode             bool
	RequireFace            bool
	VerifyCheckOutLocation bool
	DayOffStatus           string
	StoreTimeout           time.Duration
	StaleScanInterval      time.Duration
	PolicyFile             string
}

// Load reads an optional .env file, then the environment, then the optional
// attendance policy file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs_presence"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Name:     getEnv("APP_NAME", "presence-cmlabs"),
		Version:  getEnv("APP_VERSION", "v1.0.0"),
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	accessExpiration, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// Attendance policy
	strict, err := getEnvBool("ATTENDANCE_STRICT_MODE", false)
	if err != nil {
		return nil, err
	}
	requireFace, err := getEnvBool("ATTENDANCE_REQUIRE_FACE", true)
	if err != nil {
		return nil, err
	}
	verifyCheckOut, err := getEnvBool("ATTENDANCE_VERIFY_CHECKOUT_LOCATION", false)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := getEnvDuration("ATTENDANCE_STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	staleScan, err := getEnvDuration("ATTENDANCE_STALE_SCAN_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	config.Attendance = AttendanceConfig{
		Timezone:               getEnv("ATTENDANCE_TIMEZONE", clock.DefaultTimezone),
		StrictMode:             strict,
		RequireFace:            requireFace,
		VerifyCheckOutLocation: verifyCheckOut,
		DayOffStatus:           getEnv("ATTENDANCE_DAY_OFF_STATUS", string(attendance.StatusPresent)),
		StoreTimeout:           storeTimeout,
		StaleScanInterval:      staleScan,
		PolicyFile:             getEnv("ATTENDANCE_POLICY_FILE", ""),
	}

	if config.Attendance.PolicyFile != "" {
		if err := config.Attendance.ApplyPolicyFile(config.Attendance.PolicyFile); err != nil {
			return nil, err
		}
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessExpiration <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive")
	}
	return c.Attendance.Validate()
}

func (a AttendanceConfig) Validate() error {
	if _, err := time.LoadLocation(a.Timezone); err != nil {
		return fmt.Errorf("ATTENDANCE_TIMEZONE %q is not a known timezone", a.Timezone)
	}
	if !validator.IsInSlice(a.DayOffStatus, attendance.CheckInStatusValues) {
		return fmt.Errorf("ATTENDANCE_DAY_OFF_STATUS must be one of %s", strings.Join(attendance.CheckInStatusValues, ", "))
	}
	if a.StoreTimeout <= 0 {
		return fmt.Errorf("ATTENDANCE_STORE_TIMEOUT must be positive")
	}
	if a.StaleScanInterval <= 0 {
		return fmt.Errorf("ATTENDANCE_STALE_SCAN_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
