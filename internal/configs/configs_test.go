package configs

import (
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"ENVIRONMENT", "PORT", "STATIC_DIR", "ALLOWED_ORIGINS",
		"PRESENCE_INCLUDE_UNNAMED", "CHAT_ECHO_SENDER",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.StaticDir != "public" {
		t.Errorf("StaticDir = %q, want public", cfg.StaticDir)
	}
	if cfg.PresenceIncludeUnnamed {
		t.Error("PresenceIncludeUnnamed should default to false")
	}
	if cfg.ChatEchoSender {
		t.Error("ChatEchoSender should default to false")
	}
	if cfg.StorageEnabled() {
		t.Error("StorageEnabled() should be false with no S3 settings")
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should reject a non-numeric port")
	}

	t.Setenv("PORT", "80")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should reject a privileged port")
	}
}

func TestLoadConfigOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestLoadConfigPolicyFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRESENCE_INCLUDE_UNNAMED", "true")
	t.Setenv("CHAT_ECHO_SENDER", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if !cfg.PresenceIncludeUnnamed {
		t.Error("PresenceIncludeUnnamed = false, want true")
	}
	if !cfg.ChatEchoSender {
		t.Error("ChatEchoSender = false, want true")
	}

	t.Setenv("CHAT_ECHO_SENDER", "maybe")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should reject a non-boolean flag value")
	}
}

func TestLoadConfigPartialS3Rejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_BUCKET_NAME", "avatars")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should reject incomplete S3 configuration")
	}

	t.Setenv("S3_ENDPOINT", "https://s3.example.com")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error with full S3 config: %v", err)
	}
	if !cfg.StorageEnabled() {
		t.Error("StorageEnabled() = false with full S3 configuration")
	}
}
