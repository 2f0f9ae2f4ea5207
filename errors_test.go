package guide2pdf

import (
	"errors"
	"fmt"
	"testing"
)

// ---------------------------------------------------------------------------
// TestStageError - Stage reporting and unwrapping
// ---------------------------------------------------------------------------

func TestStageError(t *testing.T) {
	t.Parallel()

	err := failed(StageCombining, fmt.Errorf("%w: broken file", ErrCombine))

	if got, want := err.Error(), "combining: PDF combination failed: broken file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrCombine) {
		t.Error("StageError should unwrap to its cause")
	}

	var se *StageError
	if !errors.As(fmt.Errorf("request 7: %w", err), &se) || se.Stage != StageCombining {
		t.Errorf("errors.As() did not find the stage: %v", se)
	}
}

// ---------------------------------------------------------------------------
// TestIsClientError - 400 versus 500 classification
// ---------------------------------------------------------------------------

func TestIsClientError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"missing source", ErrMissingSource, true},
		{"invalid answers", ErrInvalidAnswers, true},
		{"not text", ErrNotText, true},
		{"no templates", ErrNoTemplates, true},
		{"invalid margin", ErrInvalidMargin, true},
		{"wrapped in stage", failed(StageFiltering, ErrNoTemplates), true},
		{"upstream", ErrUpstreamFetch, false},
		{"conversion", fmt.Errorf("%w: %w", ErrConversion, ErrPageLoad), false},
		{"combine in stage", failed(StageCombining, ErrCombine), false},
		{"unrelated", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsClientError(tt.err); got != tt.want {
				t.Errorf("IsClientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
