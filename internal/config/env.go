package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix starts every environment variable read by ApplyEnv.
const EnvPrefix = "GUIDE2PDF_"

// knownEnvVars lists valid GUIDE2PDF_* environment variables.
// Used to detect typos and warn operators about unknown variables.
var knownEnvVars = map[string]bool{
	"GUIDE2PDF_CONFIG":           true,
	"GUIDE2PDF_ADDR":             true,
	"GUIDE2PDF_ASSEMBLE_TIMEOUT": true,
	"GUIDE2PDF_LOG_MODE":         true,
	"GUIDE2PDF_VERBOSE":          true,
	"GUIDE2PDF_CHROME_PATH":      true,
	"GUIDE2PDF_NO_SANDBOX":       true,
	"GUIDE2PDF_WORKERS":          true,
	"GUIDE2PDF_DB_DRIVER":        true,
	"GUIDE2PDF_DB_DSN":           true,
	"GUIDE2PDF_PDF_DIR":          true,
	"GUIDE2PDF_WORK_DIR":         true,
	"GUIDE2PDF_JWT_SECRET":       true,
	"GUIDE2PDF_DEV_USER":         true,
	"GUIDE2PDF_STYLE":            true,
	"GUIDE2PDF_STYLE_DIR":        true,
	"GUIDE2PDF_TRACING":          true,
	"GUIDE2PDF_OTLP_ENDPOINT":    true,
}

// ApplyEnv overrides c with the GUIDE2PDF_* variables found through lookup,
// typically os.LookupEnv. Malformed numbers, booleans and durations are
// errors; the result is not validated.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []string
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q", key, v))
				return
			}
			*dst = b
		}
	}

	str("GUIDE2PDF_ADDR", &c.Server.Addr)
	str("GUIDE2PDF_LOG_MODE", &c.Log.Mode)
	boolean("GUIDE2PDF_VERBOSE", &c.Log.Verbose)
	str("GUIDE2PDF_CHROME_PATH", &c.Converter.BinaryPath)
	boolean("GUIDE2PDF_NO_SANDBOX", &c.Converter.NoSandbox)
	str("GUIDE2PDF_DB_DRIVER", &c.Storage.Driver)
	str("GUIDE2PDF_DB_DSN", &c.Storage.DSN)
	str("GUIDE2PDF_PDF_DIR", &c.Storage.PDFDir)
	str("GUIDE2PDF_WORK_DIR", &c.Storage.WorkDir)
	str("GUIDE2PDF_JWT_SECRET", &c.Auth.Secret)
	str("GUIDE2PDF_DEV_USER", &c.Auth.DevUser)
	str("GUIDE2PDF_STYLE", &c.Render.Style)
	str("GUIDE2PDF_STYLE_DIR", &c.Render.StyleDir)
	str("GUIDE2PDF_TRACING", &c.Tracing.Exporter)
	str("GUIDE2PDF_OTLP_ENDPOINT", &c.Tracing.Endpoint)

	if v, ok := lookup("GUIDE2PDF_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("GUIDE2PDF_WORKERS=%q", v))
		} else {
			c.Converter.Workers = n
		}
	}
	if v, ok := lookup("GUIDE2PDF_ASSEMBLE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("GUIDE2PDF_ASSEMBLE_TIMEOUT=%q", v))
		} else {
			c.Server.AssembleTimeout = Duration(d)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: malformed environment %s", ErrInvalidConfig, strings.Join(errs, ", "))
	}
	return nil
}

// UnknownEnvVars returns the GUIDE2PDF_* names in environ (KEY=VALUE form)
// that ApplyEnv does not recognize.
func UnknownEnvVars(environ []string) []string {
	var unknown []string
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix) && !knownEnvVars[key] {
			unknown = append(unknown, key)
		}
	}
	return unknown
}
