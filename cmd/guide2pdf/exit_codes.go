package main

import (
	"errors"

	"github.com/alnah/go-guide2pdf/internal/assets"
	"github.com/alnah/go-guide2pdf/internal/auth"
	"github.com/alnah/go-guide2pdf/internal/config"
	"github.com/alnah/go-guide2pdf/internal/store"
)

// Exit codes for the guide2pdf server.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Clean shutdown
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or style
	ExitStorage = 3 // Database unreachable or not migratable
	ExitListen  = 4 // HTTP listener failed
)

// Errors raised while starting the server.
var (
	errUsage   = errors.New("usage error")
	errStorage = errors.New("storage unavailable")
	errListen  = errors.New("http server failed")
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, errStorage) || errors.Is(err, store.ErrUnknownDriver) {
		return ExitStorage
	}

	if errors.Is(err, errListen) {
		return ExitListen
	}

	if errors.Is(err, errUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, auth.ErrNoSecret) {
		return ExitUsage
	}

	return ExitGeneral
}
