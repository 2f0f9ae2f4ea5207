// Package config loads the service configuration from a YAML file and
// GUIDE2PDF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Bounds mirrored from the PDF options accepted per request, in millimeters.
const (
	MaxMargin  = 80.0
	MaxSpacing = 40.0
	MaxWorkers = 8
)

// Config holds all configuration for the assembly service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Converter ConverterConfig `yaml:"converter"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	PDF       PDFConfig       `yaml:"pdf"`
	Render    RenderConfig    `yaml:"render"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`            // default ":8080"
	AssembleTimeout Duration `yaml:"assembleTimeout"` // whole-request bound (default 2m)
	ShutdownTimeout Duration `yaml:"shutdownTimeout"` // graceful drain (default 15s)
	MaxBodyBytes    int64    `yaml:"maxBodyBytes"`    // request body cap, covers inline PDFs
	AllowedOrigins  []string `yaml:"allowedOrigins"`  // CORS, empty = same origin only
}

// LogConfig defines logger options.
type LogConfig struct {
	Mode    string `yaml:"mode"` // "development" or "production"
	Verbose bool   `yaml:"verbose"`
}

// ConverterConfig defines headless Chrome options.
type ConverterConfig struct {
	BinaryPath string   `yaml:"binaryPath"` // empty = let rod locate or download Chrome
	Timeout    Duration `yaml:"timeout"`    // per conversion
	Workers    int      `yaml:"workers"`    // 0 = derived from GOMAXPROCS
	NoSandbox  bool     `yaml:"noSandbox"`  // required in most containers
}

// StorageConfig defines where templates and files live.
type StorageConfig struct {
	Driver  string `yaml:"driver"`  // "sqlite" or "postgres"
	DSN     string `yaml:"dsn"`     // driver data source
	PDFDir  string `yaml:"pdfDir"`  // canonical PDF template files
	WorkDir string `yaml:"workDir"` // intermediates, empty = os.TempDir()
}

// AuthConfig defines session cookie verification.
type AuthConfig struct {
	CookieName string `yaml:"cookieName"`
	Secret     string `yaml:"secret"`  // HMAC key for session tokens
	DevUser    string `yaml:"devUser"` // accepts every request as this user; never in production
}

// PDFConfig defines the margins and spacings used when a request sets none.
type PDFConfig struct {
	MarginTop     float64 `yaml:"marginTop"`
	MarginBottom  float64 `yaml:"marginBottom"`
	HeaderSpacing float64 `yaml:"headerSpacing"`
	FooterSpacing float64 `yaml:"footerSpacing"`
}

// RenderConfig defines the stylesheet applied to text templates.
type RenderConfig struct {
	Style    string `yaml:"style"`    // style name, default "guide"
	StyleDir string `yaml:"styleDir"` // directory searched before embedded styles
}

// TracingConfig defines OpenTelemetry export.
type TracingConfig struct {
	Exporter    string  `yaml:"exporter"`    // "none", "stdout" or "otlp"
	Endpoint    string  `yaml:"endpoint"`    // OTLP/HTTP host:port
	Insecure    bool    `yaml:"insecure"`    // plain HTTP to the collector
	SampleRatio float64 `yaml:"sampleRatio"` // 0..1, default 1
}

// DefaultConfig returns a configuration that runs locally against sqlite.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AssembleTimeout: Duration(2 * time.Minute),
			ShutdownTimeout: Duration(15 * time.Second),
			MaxBodyBytes:    32 << 20,
		},
		Log:       LogConfig{Mode: "production"},
		Converter: ConverterConfig{Timeout: Duration(30 * time.Second)},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "guide2pdf.db",
			PDFDir: "pdf-templates",
		},
		Auth: AuthConfig{CookieName: "session"},
		PDF: PDFConfig{
			MarginTop:     20,
			MarginBottom:  15,
			HeaderSpacing: 5,
			FooterSpacing: 5,
		},
		Render:  RenderConfig{Style: "guide"},
		Tracing: TracingConfig{Exporter: "none", SampleRatio: 1},
	}
}

// Validate checks value ranges and cross-field requirements.
// Called automatically by LoadConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	if c.Server.AssembleTimeout <= 0 {
		return fmt.Errorf("%w: server.assembleTimeout must be positive", ErrInvalidConfig)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: server.maxBodyBytes must not be negative", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Log.Mode) {
	case "", "development", "dev", "production", "prod":
	default:
		return fmt.Errorf("%w: log.mode %q (must be development or production)", ErrInvalidConfig, c.Log.Mode)
	}

	if c.Converter.Workers < 0 || c.Converter.Workers > MaxWorkers {
		return fmt.Errorf("%w: converter.workers must be between 0 and %d, got %d", ErrInvalidConfig, MaxWorkers, c.Converter.Workers)
	}
	if c.Converter.Timeout < 0 {
		return fmt.Errorf("%w: converter.timeout must not be negative", ErrInvalidConfig)
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: storage.driver %q (must be sqlite or postgres)", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn is required", ErrInvalidConfig)
	}

	if c.Auth.Secret == "" && c.Auth.DevUser == "" {
		return fmt.Errorf("%w: auth.secret or auth.devUser is required", ErrInvalidConfig)
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("%w: auth.cookieName is required", ErrInvalidConfig)
	}

	for name, m := range map[string]float64{"pdf.marginTop": c.PDF.MarginTop, "pdf.marginBottom": c.PDF.MarginBottom} {
		if m < 0 || m > MaxMargin {
			return fmt.Errorf("%w: %s must be between 0 and %.0f, got %.1f", ErrInvalidConfig, name, MaxMargin, m)
		}
	}
	for name, s := range map[string]float64{"pdf.headerSpacing": c.PDF.HeaderSpacing, "pdf.footerSpacing": c.PDF.FooterSpacing} {
		if s < 0 || s > MaxSpacing {
			return fmt.Errorf("%w: %s must be between 0 and %.0f, got %.1f", ErrInvalidConfig, name, MaxSpacing, s)
		}
	}

	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	case "otlp":
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("%w: tracing.endpoint is required for the otlp exporter", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: tracing.exporter %q (must be none, stdout or otlp)", ErrInvalidConfig, c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sampleRatio must be between 0 and 1", ErrInvalidConfig)
	}

	return nil
}

// LoadConfig loads configuration from a file path or config name on top of
// DefaultConfig. If nameOrPath contains a path separator it is read as is;
// otherwise it is searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	cfg, err := readConfig(nameOrPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load builds the service configuration: DefaultConfig, then the file named
// by nameOrPath when it is not empty, then the environment through lookup.
// The result is validated once every layer is applied.
func Load(nameOrPath string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	if nameOrPath != "" {
		var err error
		if cfg, err = readConfig(nameOrPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/guide2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "guide2pdf", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
