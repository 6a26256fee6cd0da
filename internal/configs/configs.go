/*
Package configs is responsible for loading and parsing the application's configuration settings.

All settings come from environment variables: the running environment, listen
port, CORS allowed origins, relay policy flags, the static asset directory,
and the optional S3-compatible avatar storage credentials.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// StaticDir is the directory of client assets served at the root path.
	// Empty disables static serving.
	StaticDir string

	// Security Settings
	AllowedOrigins []string

	// Relay Policy Settings
	// PresenceIncludeUnnamed lists connections with no announced identity in
	// presence snapshots, with an empty display name.
	PresenceIncludeUnnamed bool
	// ChatEchoSender relays chat messages back to their sender.
	ChatEchoSender bool

	// S3 Avatar Storage Settings (optional; all four required to enable)
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// StorageEnabled reports whether the optional avatar storage is configured.
func (c *AppConfig) StorageEnabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != "" &&
		c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// LoadConfig reads and parses the application configuration from environment
// variables, applying defaults and validating values.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "5000"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	cfg.StaticDir = os.Getenv("STATIC_DIR")
	if cfg.StaticDir == "" {
		cfg.StaticDir = "public"
	}
	if cfg.StaticDir == "none" {
		cfg.StaticDir = ""
	}

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Relay Policy Settings ---
	cfg.PresenceIncludeUnnamed, err = loadBool("PRESENCE_INCLUDE_UNNAMED", false)
	if err != nil {
		return nil, err
	}

	cfg.ChatEchoSender, err = loadBool("CHAT_ECHO_SENDER", false)
	if err != nil {
		return nil, err
	}

	// --- S3 Avatar Storage Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	s3Set := 0
	for _, v := range []string{cfg.S3BucketName, cfg.S3Endpoint, cfg.S3AccessKeyID, cfg.S3SecretAccessKey} {
		if v != "" {
			s3Set++
		}
	}
	if s3Set > 0 && s3Set < 4 {
		return nil, fmt.Errorf("incomplete S3 configuration: S3_BUCKET_NAME, S3_ENDPOINT, S3_ACCESS_KEY_ID, and S3_SECRET_ACCESS_KEY must all be set to enable avatar storage")
	}

	return cfg, nil
}

// loadBool parses a boolean environment variable, returning def when unset.
func loadBool(name string, def bool) (bool, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
