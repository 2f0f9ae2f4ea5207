package guide2pdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for assembly operations.
var (
	// Client input errors (HTTP 400).
	ErrClientInput    = errors.New("invalid assembly request")
	ErrMissingSource  = fmt.Errorf("%w: guideId or fileDataUrl is required", ErrClientInput)
	ErrInvalidAnswers = fmt.Errorf("%w: answers must be a JSON object", ErrClientInput)
	ErrNotText        = fmt.Errorf("%w: template is not a text template", ErrClientInput)
	ErrNoTemplates    = fmt.Errorf("%w: no templates apply to the given answers", ErrClientInput)
	ErrUnavailable    = fmt.Errorf("%w: template is inactive or belongs to another guide", ErrClientInput)

	// Pipeline errors (HTTP 500).
	ErrUpstreamFetch = errors.New("template store request failed")
	ErrRender        = errors.New("HTML rendering failed")
	ErrConversion    = errors.New("PDF conversion failed")
	ErrOverlay       = errors.New("PDF overlay failed")
	ErrCombine       = errors.New("PDF combination failed")

	// ErrCleanup is logged only; the response is already committed when it happens.
	ErrCleanup = errors.New("temporary file cleanup failed")

	// Browser errors, always wrapped by ErrConversion.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")

	// PDF options validation errors.
	ErrInvalidMargin  = fmt.Errorf("%w: invalid margin", ErrClientInput)
	ErrInvalidSpacing = fmt.Errorf("%w: invalid header or footer spacing", ErrClientInput)
)

// Stage names the assembly state in which a request failed.
type Stage string

// Assembly stages, in pipeline order.
const (
	StageValidatingInput   Stage = "validating_input"
	StageResolvingUser     Stage = "resolving_user"
	StageFetchingTemplates Stage = "fetching_templates"
	StageFiltering         Stage = "filtering"
	StageSegmenting        Stage = "segmenting"
	StageRendering         Stage = "rendering"
	StageCombining         Stage = "combining"
)

// StageError reports the stage an assembly failed in.
// It unwraps to the underlying sentinel so errors.Is keeps working.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func failed(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrClientInput)
}
