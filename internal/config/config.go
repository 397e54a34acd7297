// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	Uploads UploadsConfig
	Display DisplayConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds data storage configuration.
type DataConfig struct {
	// BasePath is the root directory for all persistent state:
	// the key-value database, the search index, the stats database,
	// and (by default) uploaded media.
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	LocalURL     string        // Optional
	RemoteURL    string        // Optional
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey []byte
	// Session durations
	AccessTokenDuration  time.Duration // e.g., 15m
	RefreshTokenDuration time.Duration // e.g., 720h (30 days)
}

// UploadsConfig holds media upload configuration.
type UploadsConfig struct {
	// Path is the directory uploaded media is stored in
	// (default: {data}/uploads).
	Path string
	// MaxSize is the largest accepted upload in bytes (default: 256 MiB).
	MaxSize int64
}

// DisplayConfig holds display rotation configuration.
type DisplayConfig struct {
	// ImageDuration is how long image and text items without an explicit
	// duration stay on screen (default: 5s).
	ImageDuration time.Duration
	// VideoFallbackGrace is added to a video's declared duration for the
	// fallback advance timer (default: 2s).
	VideoFallbackGrace time.Duration
	// ErrorGrace is how long a failed item is shown before advancing
	// (default: 5s).
	ErrorGrace time.Duration
	// ConnectivityInterval is how often screen connectivity is re-evaluated
	// (default: 30s).
	ConnectivityInterval time.Duration
	// SimulateConnectivity enables the random connectivity flip on display
	// sessions (default: true). Off, sessions stay connected.
	SimulateConnectivity bool
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	serverName := flag.String("server-name", "", "Name for the server")
	serverLocalURL := flag.String("local-url", "", "Internal server url")
	serverRemoteURL := flag.String("remote-url", "", "Remote server url")

	// Auth flags
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := flag.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Upload flags
	uploadsPath := flag.String("uploads-path", "", "Path for uploaded media (default: {data}/uploads)")
	maxUploadSize := flag.String("max-upload-size", "", "Max upload size in bytes (default: 268435456)")

	// Display flags
	imageDuration := flag.String("image-duration", "", "Default on-screen time for images and text (default: 5s)")
	videoFallbackGrace := flag.String("video-fallback-grace", "", "Grace added to video durations for fallback advance (default: 2s)")
	errorGrace := flag.String("error-grace", "", "How long a failed item is shown before advancing (default: 5s)")
	connectivityInterval := flag.String("connectivity-interval", "", "Screen connectivity check interval (default: 30s)")
	simulateConnectivity := flag.String("simulate-connectivity", "", "Simulate display connectivity drops (default: true)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},

		Server: ServerConfig{
			Name:      getConfigValue(*serverName, "SERVER_NAME", "WebSign Server"),
			LocalURL:  getConfigValue(*serverLocalURL, "SERVER_LOCAL_URL", ""),
			RemoteURL: getConfigValue(*serverRemoteURL, "SERVER_REMOTE_URL", ""),
			Port:      getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},

		Auth: AuthConfig{
			AccessTokenKey: nil, // Will be set by auth.LoadOrGenerateKey in main
		},

		Uploads: UploadsConfig{
			Path:    getConfigValue(*uploadsPath, "UPLOADS_PATH", ""),
			MaxSize: getInt64ConfigValue(*maxUploadSize, "MAX_UPLOAD_SIZE", 256<<20),
		},
	}

	// Parse auth durations.
	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	refreshDurationStr := getConfigValue(*refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h")
	refreshDuration, err := time.ParseDuration(refreshDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token duration %q: %w", refreshDurationStr, err)
	}
	cfg.Auth.RefreshTokenDuration = refreshDuration

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Parse display durations.
	imageDurationStr := getConfigValue(*imageDuration, "DISPLAY_IMAGE_DURATION", "5s")
	imageDurationVal, err := time.ParseDuration(imageDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid image duration %q: %w", imageDurationStr, err)
	}
	cfg.Display.ImageDuration = imageDurationVal

	videoGraceStr := getConfigValue(*videoFallbackGrace, "DISPLAY_VIDEO_FALLBACK_GRACE", "2s")
	videoGraceVal, err := time.ParseDuration(videoGraceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid video fallback grace %q: %w", videoGraceStr, err)
	}
	cfg.Display.VideoFallbackGrace = videoGraceVal

	errorGraceStr := getConfigValue(*errorGrace, "DISPLAY_ERROR_GRACE", "5s")
	errorGraceVal, err := time.ParseDuration(errorGraceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid error grace %q: %w", errorGraceStr, err)
	}
	cfg.Display.ErrorGrace = errorGraceVal

	connectivityIntervalStr := getConfigValue(*connectivityInterval, "DISPLAY_CONNECTIVITY_INTERVAL", "30s")
	connectivityIntervalVal, err := time.ParseDuration(connectivityIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connectivity interval %q: %w", connectivityIntervalStr, err)
	}
	cfg.Display.ConnectivityInterval = connectivityIntervalVal

	simulateStr := getConfigValue(*simulateConnectivity, "DISPLAY_SIMULATE_CONNECTIVITY", "true")
	cfg.Display.SimulateConnectivity = strings.EqualFold(simulateStr, "true") || simulateStr == "1"

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand uploads path (defaults to {data}/uploads).
	if err := cfg.expandUploadsPath(); err != nil {
		return nil, fmt.Errorf("invalid uploads path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Uploads.MaxSize <= 0 {
		return fmt.Errorf("invalid max upload size: %d", c.Uploads.MaxSize)
	}

	for name, d := range map[string]time.Duration{
		"image duration":        c.Display.ImageDuration,
		"video fallback grace":  c.Display.VideoFallbackGrace,
		"error grace":           c.Display.ErrorGrace,
		"connectivity interval": c.Display.ConnectivityInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("display %s must be positive", name)
		}
	}

	// Auth durations are validated during LoadConfig parsing.
	// Auth key is set by auth.LoadOrGenerateKey in main.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "WebSign", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandUploadsPath expands ~ and makes the path absolute.
// Defaults to {data}/uploads if not specified.
func (c *Config) expandUploadsPath() error {
	defaultPath := filepath.Join(c.Data.BasePath, "uploads")

	expanded, err := expandPath(c.Uploads.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Uploads.Path = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int64
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
