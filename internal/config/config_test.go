package config

import (
	"log/slog"
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"PORT", "STORE_URI", "CNAM_PROJECT_ID", "CNAM_API_TOKEN", "CNAM_SPACE_HOST",
		"XMLCURLD_OUTBOUND_GATEWAY_PROFILE", "XMLCURLD_ADMIN_JWT_SECRET",
		"XMLCURLD_CORS_ORIGINS", "XMLCURLD_LOG_LEVEL", "XMLCURLD_LOG_FORMAT",
	} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	os.Args = []string{"xmlcurld"}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, defaultPort)
	}
	if cfg.StoreURI != defaultStoreURI {
		t.Errorf("StoreURI = %q, want %q", cfg.StoreURI, defaultStoreURI)
	}
	if cfg.OutboundGatewayProfile != defaultOutboundGatewayProfile {
		t.Errorf("OutboundGatewayProfile = %q, want %q", cfg.OutboundGatewayProfile, defaultOutboundGatewayProfile)
	}
	if cfg.CNAMEnabled() {
		t.Error("CNAMEnabled() = true, want false with no CNAM credentials set")
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
	if cfg.LogFormat != defaultLogFormat {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, defaultLogFormat)
	}
}

func TestEnvVarOverride(t *testing.T) {
	clearEnv(t)
	os.Args = []string{"xmlcurld"}
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_URI", "/tmp/xmlcurld-test.db")
	t.Setenv("CNAM_PROJECT_ID", "proj")
	t.Setenv("CNAM_API_TOKEN", "tok")
	t.Setenv("CNAM_SPACE_HOST", "cnam.example.com")
	t.Setenv("XMLCURLD_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.StoreURI != "/tmp/xmlcurld-test.db" {
		t.Errorf("StoreURI = %q, want /tmp/xmlcurld-test.db", cfg.StoreURI)
	}
	if !cfg.CNAMEnabled() {
		t.Error("CNAMEnabled() = false, want true with all CNAM credentials set")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestCLIFlagsPrecedence(t *testing.T) {
	clearEnv(t)
	os.Args = []string{"xmlcurld", "--port", "3000", "--log-level", "warn"}
	t.Setenv("PORT", "9090")
	t.Setenv("XMLCURLD_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000 (CLI should override env)", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (CLI should override env)", cfg.LogLevel)
	}
}

func TestValidateInvalidPort(t *testing.T) {
	clearEnv(t)
	os.Args = []string{"xmlcurld", "--port", "99999"}
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid port, got nil")
	}
}

func TestValidateInvalidLogLevel(t *testing.T) {
	clearEnv(t)
	os.Args = []string{"xmlcurld", "--log-level", "verbose"}
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
}

func TestValidateEmptyOutboundGatewayProfile(t *testing.T) {
	clearEnv(t)
	os.Args = []string{"xmlcurld", "--outbound-gateway-profile", ""}
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for empty outbound-gateway-profile, got nil")
	}
}

func TestAdminJWTSecretBytesGeneratesWhenEmpty(t *testing.T) {
	cfg := &Config{}
	key, err := cfg.AdminJWTSecretBytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("generated key length = %d, want 32", len(key))
	}
	if cfg.AdminJWTSecret == "" {
		t.Error("expected AdminJWTSecret to be populated after generation")
	}

	// Calling again should decode the now-stored secret rather than regenerate.
	key2, err := cfg.AdminJWTSecretBytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(key) != string(key2) {
		t.Error("expected second call to return the same key")
	}
}

func TestAdminJWTSecretBytesInvalidHex(t *testing.T) {
	cfg := &Config{AdminJWTSecret: "not-hex!"}
	if _, err := cfg.AdminJWTSecretBytes(); err == nil {
		t.Fatal("expected error for invalid hex secret, got nil")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level}
			if got := cfg.SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
