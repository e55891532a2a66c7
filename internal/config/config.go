package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration for xmlcurld: the multi-tenant
// SIP control plane that answers FreeSWITCH mod_xml_curl lookups.
// Precedence: CLI flags > env vars > defaults.
type Config struct {
	Port int    // HTTP listen port (switch-facing + admin routes share one listener)
	Addr string // listen address, usually empty (all interfaces)

	StoreURI string // sqlite database path for tenants and gateways

	CNAMProjectID string
	CNAMAPIToken  string
	CNAMSpaceHost string

	// OutboundGatewayProfile is the <profile> token used when the dialplan
	// resolver composes sofia/gateway/<profile>/<number> bridge strings for
	// outbound PSTN calls. It must match the external SIP profile's name
	// emitted by the configuration resolver.
	OutboundGatewayProfile string

	AdminJWTSecret string // hex-encoded secret signing admin bearer tokens
	CORSOrigins    string // comma-separated list of allowed CORS origins for the admin API

	LogLevel  string
	LogFormat string // "text" or "json"
}

const (
	defaultPort                   = 8080
	defaultStoreURI               = "./data/xmlcurld.db"
	defaultOutboundGatewayProfile = "external"
	defaultLogLevel               = "info"
	defaultLogFormat              = "text"
)

// envPrefix namespaces xmlcurld-specific env vars. PORT, STORE_URI and the
// CNAM_* variables carry no prefix.
const envPrefix = "XMLCURLD_"

// Load parses configuration from CLI flags and environment variables.
// Precedence: CLI flags > env vars > defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("xmlcurld", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", defaultPort, "HTTP listen port")
	fs.StringVar(&cfg.Addr, "addr", "", "listen address (empty = all interfaces)")
	fs.StringVar(&cfg.StoreURI, "store-uri", defaultStoreURI, "sqlite database path for tenants and gateways")
	fs.StringVar(&cfg.CNAMProjectID, "cnam-project-id", "", "CNAM lookup provider project id")
	fs.StringVar(&cfg.CNAMAPIToken, "cnam-api-token", "", "CNAM lookup provider API token")
	fs.StringVar(&cfg.CNAMSpaceHost, "cnam-space-host", "", "CNAM lookup provider API host")
	fs.StringVar(&cfg.OutboundGatewayProfile, "outbound-gateway-profile", defaultOutboundGatewayProfile, "sofia profile name used for outbound PSTN bridge strings")
	fs.StringVar(&cfg.AdminJWTSecret, "admin-jwt-secret", "", "hex-encoded secret for signing admin bearer tokens (auto-generated if empty)")
	fs.StringVar(&cfg.CORSOrigins, "cors-origins", "", "comma-separated list of allowed CORS origins for the admin API")
	fs.StringVar(&cfg.LogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", defaultLogFormat, "log output format (text, json)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// Apply env var overrides for any flags not explicitly set on the command line.
	// CLI flags take precedence over env vars.
	applyEnvOverrides(fs, cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides checks environment variables for any flag that was not
// explicitly provided on the command line. This preserves the precedence:
// CLI flags > env vars > defaults.
func applyEnvOverrides(fs *flag.FlagSet, cfg *Config) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	envMap := map[string]string{
		"port":                     "PORT",
		"store-uri":                "STORE_URI",
		"cnam-project-id":          "CNAM_PROJECT_ID",
		"cnam-api-token":           "CNAM_API_TOKEN",
		"cnam-space-host":          "CNAM_SPACE_HOST",
		"outbound-gateway-profile": envPrefix + "OUTBOUND_GATEWAY_PROFILE",
		"admin-jwt-secret":         envPrefix + "ADMIN_JWT_SECRET",
		"cors-origins":             envPrefix + "CORS_ORIGINS",
		"log-level":                envPrefix + "LOG_LEVEL",
		"log-format":               envPrefix + "LOG_FORMAT",
	}

	for flagName, envVar := range envMap {
		if set[flagName] {
			continue
		}
		val, ok := os.LookupEnv(envVar)
		if !ok || val == "" {
			continue
		}
		switch flagName {
		case "port":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.Port = v
			}
		case "store-uri":
			cfg.StoreURI = val
		case "cnam-project-id":
			cfg.CNAMProjectID = val
		case "cnam-api-token":
			cfg.CNAMAPIToken = val
		case "cnam-space-host":
			cfg.CNAMSpaceHost = val
		case "outbound-gateway-profile":
			cfg.OutboundGatewayProfile = val
		case "admin-jwt-secret":
			cfg.AdminJWTSecret = val
		case "cors-origins":
			cfg.CORSOrigins = val
		case "log-level":
			cfg.LogLevel = val
		case "log-format":
			cfg.LogFormat = val
		}
	}
}

// validate checks that the config values are sane.
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.StoreURI == "" {
		return fmt.Errorf("store-uri must not be empty")
	}
	if c.OutboundGatewayProfile == "" {
		return fmt.Errorf("outbound-gateway-profile must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log-level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.LogFormat)] {
		return fmt.Errorf("log-format must be one of text, json; got %q", c.LogFormat)
	}
	c.LogFormat = strings.ToLower(c.LogFormat)

	return nil
}

// CNAMEnabled reports whether enough CNAM credentials are present to enable
// caller-name enrichment. Missing credentials disable enrichment without
// failing startup.
func (c *Config) CNAMEnabled() bool {
	return c.CNAMProjectID != "" && c.CNAMAPIToken != "" && c.CNAMSpaceHost != ""
}

// AdminJWTSecretBytes returns the decoded admin JWT signing secret.
// If no secret is configured, it generates a random 32-byte key and stores
// the hex-encoded value back in the config for the process lifetime.
func (c *Config) AdminJWTSecretBytes() ([]byte, error) {
	if c.AdminJWTSecret == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generating admin jwt secret: %w", err)
		}
		c.AdminJWTSecret = hex.EncodeToString(key)
		slog.Warn("no admin-jwt-secret configured, generated ephemeral key (admin tokens will not survive restart)")
		return key, nil
	}
	key, err := hex.DecodeString(c.AdminJWTSecret)
	if err != nil {
		return nil, fmt.Errorf("decoding admin jwt secret: %w", err)
	}
	return key, nil
}

// SlogHandler returns a slog.Handler configured with the appropriate format
// (text or json) and log level.
func (c *Config) SlogHandler(w *os.File) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SlogLevel returns the slog.Level corresponding to the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
