package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alnah/go-guide2pdf/internal/assets"
	"github.com/alnah/go-guide2pdf/internal/auth"
	"github.com/alnah/go-guide2pdf/internal/config"
	"github.com/alnah/go-guide2pdf/internal/store"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		{"storage", errStorage, ExitStorage},
		{"unknown driver", fmt.Errorf("open: %w", store.ErrUnknownDriver), ExitStorage},

		{"listen", fmt.Errorf("%w: address in use", errListen), ExitListen},

		{"usage", errUsage, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", fmt.Errorf("%w: line 3", config.ErrConfigParse), ExitUsage},
		{"invalid config", config.ErrInvalidConfig, ExitUsage},
		{"style not found", assets.ErrStyleNotFound, ExitUsage},
		{"no secret", auth.ErrNoSecret, ExitUsage},

		{"unexpected", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodes_Conventions(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("standard codes = %d %d %d, want 0 1 2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitStorage, ExitListen} {
		if code >= 126 {
			t.Errorf("custom code %d collides with shell-reserved codes", code)
		}
	}
}
