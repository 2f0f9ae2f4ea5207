package guide2pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-guide2pdf/internal/fileutil"
	"github.com/alnah/go-guide2pdf/internal/logger"
)

// UserResolver identifies the user a request acts for.
type UserResolver interface {
	ResolveUser(ctx context.Context, cookieHeader string) (string, error)
}

// TemplateStore reads a user's templates.
// TemplatesForGuide returns the guide's active templates in document order.
type TemplateStore interface {
	TemplatesForGuide(ctx context.Context, username, guideID string) ([]Template, error)
	Template(ctx context.Context, username, templateID string) (Template, error)
}

// VariableStore reads the variables a guide declares, keyed by lower-cased name.
type VariableStore interface {
	GuideVariables(ctx context.Context, username, guideID string) (map[string]Variable, error)
}

// Recorder observes finished assemblies. err is nil on success.
type Recorder interface {
	ObserveAssembly(err error, segments int, elapsed time.Duration)
}

// Collaborators are the services an Assembler depends on.
// PDFs and Overlayer are only needed for guides with PDF templates;
// Overlayer defaults to a PDFCPUOverlayer.
type Collaborators struct {
	Users     UserResolver
	Templates TemplateStore
	Variables VariableStore
	HTML      HTMLRenderer
	Converter PDFConverter
	PDFs      PDFTemplateStore
	Overlayer Overlayer
}

// ErrMissingCollaborator is returned by NewAssembler for incomplete wiring.
var ErrMissingCollaborator = errors.New("missing assembler collaborator")

var tracer = otel.Tracer("github.com/alnah/go-guide2pdf")

// Assembler builds one PDF document per request from a guide's templates.
type Assembler struct {
	cfg        assemblerConfig
	users      UserResolver
	templates  TemplateStore
	variables  VariableStore
	conditions *ConditionEvaluator
	renderer   *SegmentRenderer
	combiner   *PDFCombiner
	recorder   Recorder
	log        *logger.Logger
	workDir    string
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *logger.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// WithWorkDir sets the directory for intermediate files.
func WithWorkDir(dir string) Option {
	return func(a *Assembler) {
		a.workDir = dir
	}
}

// WithRecorder reports every finished assembly to r.
func WithRecorder(r Recorder) Option {
	return func(a *Assembler) {
		a.recorder = r
	}
}

// NewAssembler creates an Assembler. Users, Templates, Variables, HTML and
// Converter are required.
func NewAssembler(c Collaborators, opts ...Option) (*Assembler, error) {
	switch {
	case c.Users == nil:
		return nil, fmt.Errorf("%w: user resolver", ErrMissingCollaborator)
	case c.Templates == nil:
		return nil, fmt.Errorf("%w: template store", ErrMissingCollaborator)
	case c.Variables == nil:
		return nil, fmt.Errorf("%w: variable store", ErrMissingCollaborator)
	case c.HTML == nil:
		return nil, fmt.Errorf("%w: HTML renderer", ErrMissingCollaborator)
	case c.Converter == nil:
		return nil, fmt.Errorf("%w: PDF converter", ErrMissingCollaborator)
	}

	a := &Assembler{
		cfg:       assemblerConfig{timeout: defaultTimeout, pdfOptions: *DefaultPDFOptions()},
		users:     c.Users,
		templates: c.Templates,
		variables: c.Variables,
		combiner:  NewPDFCombiner(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	overlayer := c.Overlayer
	if overlayer == nil {
		overlayer = NewPDFCPUOverlayer()
	}
	a.conditions = NewConditionEvaluator(a.log)
	a.renderer = &SegmentRenderer{
		html:      c.HTML,
		converter: c.Converter,
		pdfs:      c.PDFs,
		overlayer: overlayer,
		workDir:   a.workDir,
		log:       a.log,
	}
	return a, nil
}

// Assemble runs one request to completion and returns the final document.
// Failures are *StageError values naming the stage that failed; client
// mistakes satisfy IsClientError. No intermediate file outlives the call.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "guide2pdf.Assemble")
	defer span.End()
	span.SetAttributes(
		attribute.String("guide.id", req.GuideID),
		attribute.String("template.id", req.TemplateID),
		attribute.Bool("inline", len(req.InlinePDF) > 0),
	)

	start := time.Now()
	run := &assembly{Assembler: a, req: req, log: a.log.With("guide_id", req.GuideID, "template_id", req.TemplateID)}
	doc, err := run.execute(ctx)
	elapsed := time.Since(start)

	span.SetAttributes(attribute.Int("segments", run.segments))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		level := run.log.Error
		if IsClientError(err) {
			level = run.log.Warn
		}
		level("assembly failed", "error", err, "elapsed", elapsed)
	} else {
		run.log.Info("assembly done", "segments", run.segments, "filename", doc.Filename, "elapsed", elapsed)
	}
	if a.recorder != nil {
		a.recorder.ObserveAssembly(err, run.segments, elapsed)
	}
	return doc, err
}

// assembly carries the state of one request through the stages.
type assembly struct {
	*Assembler
	req      Request
	log      *logger.Logger
	answers  map[string]any
	opts     *PDFOptions
	username string
	segments int
}

func (r *assembly) execute(ctx context.Context) (*Document, error) {
	if err := r.validate(); err != nil {
		return nil, failed(StageValidatingInput, err)
	}

	if r.req.GuideID == "" {
		return r.assembleInline(ctx)
	}

	username, err := r.users.ResolveUser(ctx, r.req.CookieHeader)
	if err != nil {
		return nil, failed(StageResolvingUser, wrapOnce(ErrUpstreamFetch, err))
	}
	r.username = username

	if r.req.TemplateID != "" {
		return r.assembleSingle(ctx)
	}
	return r.assembleGuide(ctx)
}

// validate checks the request before any collaborator is called.
func (r *assembly) validate() error {
	if r.req.GuideID == "" && len(r.req.InlinePDF) == 0 {
		return ErrMissingSource
	}

	r.opts = r.pdfOptions()
	if err := r.opts.Validate(); err != nil {
		return err
	}

	r.answers = r.req.Answers
	if r.answers == nil {
		r.answers = map[string]any{}
	}
	return nil
}

// pdfOptions fills unset margins and spacings from the configured defaults.
func (r *assembly) pdfOptions() *PDFOptions {
	defaults := r.cfg.pdfOptions
	if r.req.PDF == nil {
		return &defaults
	}
	opts := *r.req.PDF
	if opts.MarginTop == 0 {
		opts.MarginTop = defaults.MarginTop
	}
	if opts.MarginBottom == 0 {
		opts.MarginBottom = defaults.MarginBottom
	}
	if opts.HeaderSpacing == 0 {
		opts.HeaderSpacing = defaults.HeaderSpacing
	}
	if opts.FooterSpacing == 0 {
		opts.FooterSpacing = defaults.FooterSpacing
	}
	return &opts
}

// assembleSingle renders one text template, without segmentation.
func (r *assembly) assembleSingle(ctx context.Context) (*Document, error) {
	t, err := r.templates.Template(ctx, r.username, r.req.TemplateID)
	if err != nil {
		return nil, failed(StageFetchingTemplates, wrapOnce(ErrUpstreamFetch, err))
	}
	if t.Kind != KindText {
		return nil, failed(StageFetchingTemplates, fmt.Errorf("%w: %s", ErrNotText, t.ID))
	}
	if !t.Active || (r.req.GuideID != "" && t.GuideID != "" && t.GuideID != r.req.GuideID) {
		return nil, failed(StageFetchingTemplates, fmt.Errorf("%w: %s", ErrUnavailable, t.ID))
	}

	guideID := r.req.GuideID
	if guideID == "" {
		guideID = t.GuideID
	}
	guideVars, err := r.variables.GuideVariables(ctx, r.username, guideID)
	if err != nil {
		return nil, failed(StageFetchingTemplates, wrapOnce(ErrUpstreamFetch, err))
	}
	vars := MergeVariables(guideVars, r.answers)

	r.segments = 1
	path, err := r.renderer.RenderTextSegment(ctx, []Template{t}, vars, r.opts)
	if err != nil {
		return nil, failed(StageRendering, err)
	}

	title := r.req.Title
	if title == "" {
		title = t.Title
	}
	return &Document{Path: path, Filename: PDFFilename(title)}, nil
}

// assembleInline overlays the request's own PDF payload.
func (r *assembly) assembleInline(ctx context.Context) (*Document, error) {
	t := Template{ID: "inline", Kind: KindPDF, Active: true, PDF: r.req.InlinePDF, Boxes: r.req.InlineBoxes}
	vars := MergeVariables(nil, r.answers)

	r.segments = 1
	paths, err := r.renderer.RenderPDFSegment(ctx, "", []Template{t}, vars, r.answers)
	if err != nil {
		return nil, failed(StageRendering, err)
	}
	return r.combine(ctx, paths, r.req.Title)
}

// assembleGuide runs the full pipeline over every applicable template.
func (r *assembly) assembleGuide(ctx context.Context) (*Document, error) {
	all, err := r.templates.TemplatesForGuide(ctx, r.username, r.req.GuideID)
	if err != nil {
		return nil, failed(StageFetchingTemplates, wrapOnce(ErrUpstreamFetch, err))
	}
	guideVars, err := r.variables.GuideVariables(ctx, r.username, r.req.GuideID)
	if err != nil {
		return nil, failed(StageFetchingTemplates, wrapOnce(ErrUpstreamFetch, err))
	}

	active := make([]Template, 0, len(all))
	for _, t := range all {
		if t.Active {
			active = append(active, t)
		}
	}
	templates := r.conditions.Filter(active, r.answers)
	r.log.Debug("templates filtered", "fetched", len(all), "applicable", len(templates))
	if len(templates) == 0 {
		return nil, failed(StageFiltering, ErrNoTemplates)
	}

	vars := MergeVariables(guideVars, r.answers)

	segments := SegmentTemplates(templates)
	r.segments = len(segments)
	r.log.Debug("templates segmented", "segments", len(segments))

	outputs, err := r.renderSegments(ctx, segments, vars)
	if err != nil {
		return nil, failed(StageRendering, err)
	}

	var paths []string
	for _, out := range outputs {
		paths = append(paths, out...)
	}
	return r.combine(ctx, paths, "")
}

// renderSegments renders all segments concurrently. Outputs are indexed by
// segment position. On failure every file already produced is removed.
func (r *assembly) renderSegments(ctx context.Context, segments []Segment, vars Variables) ([][]string, error) {
	outputs := make([][]string, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segments {
		g.Go(func() error {
			segCtx, span := tracer.Start(gctx, "guide2pdf.RenderSegment")
			defer span.End()
			span.SetAttributes(
				attribute.Int("segment.index", i),
				attribute.String("segment.kind", string(seg.Kind)),
				attribute.Int("segment.templates", len(seg.Templates)),
			)

			switch seg.Kind {
			case KindText:
				path, err := r.renderer.RenderTextSegment(segCtx, seg.Templates, vars, r.opts)
				if err != nil {
					return err
				}
				outputs[i] = []string{path}
			case KindPDF:
				paths, err := r.renderer.RenderPDFSegment(segCtx, r.username, seg.Templates, vars, r.answers)
				if err != nil {
					return err
				}
				outputs[i] = paths
			default:
				return fmt.Errorf("%w: unknown template kind %q", ErrRender, seg.Kind)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, out := range outputs {
			r.removeIntermediates(out...)
		}
		return nil, err
	}
	return outputs, nil
}

// combine merges paths in order into the final document. If merging fails
// or the request was abandoned every input is removed.
func (r *assembly) combine(ctx context.Context, paths []string, title string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		r.removeIntermediates(paths...)
		return nil, failed(StageCombining, err)
	}

	final, err := r.combiner.Combine(paths)
	switch {
	case err == nil:
	case errors.Is(err, ErrCleanup):
		r.log.Warn("intermediate cleanup failed", "error", err)
	default:
		r.removeIntermediates(paths...)
		return nil, failed(StageCombining, err)
	}
	return &Document{Path: final, Filename: PDFFilename(title)}, nil
}

func (r *assembly) removeIntermediates(paths ...string) {
	if err := fileutil.RemoveFiles(paths...); err != nil {
		r.log.Warn("intermediate cleanup failed", "error", fmt.Errorf("%w: %v", ErrCleanup, err))
	}
}
