package guide2pdf

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-guide2pdf/internal/fileutil"
	"github.com/alnah/go-guide2pdf/internal/logger"
)

// PDFTemplateStore duplicates the canonical file of a PDF template.
// The returned path is a working copy owned by the caller.
type PDFTemplateStore interface {
	DuplicateTemplatePDF(ctx context.Context, username, templateID string) (string, error)
}

// Overlayer draws an overlay onto a PDF file in place.
type Overlayer interface {
	ApplyOverlay(ctx context.Context, path string, overlay Overlay) error
}

// Compile-time interface check.
var _ Overlayer = (*PDFCPUOverlayer)(nil)

// SegmentRenderer turns one segment into PDF files.
type SegmentRenderer struct {
	html      HTMLRenderer
	converter PDFConverter
	pdfs      PDFTemplateStore
	overlayer Overlayer
	workDir   string
	log       *logger.Logger
}

// RenderTextSegment renders all templates into one continuous HTML
// document and converts it, each template starting on a new page.
// The returned file is owned by the caller.
func (r *SegmentRenderer) RenderTextSegment(ctx context.Context, templates []Template, variables Variables, opts *PDFOptions) (string, error) {
	html, err := r.html.RenderHTML(ctx, templates, variables)
	if err != nil {
		return "", wrapOnce(ErrRender, err)
	}

	path, err := r.converter.ToPDF(ctx, html, opts)
	if err != nil {
		return "", wrapOnce(ErrConversion, err)
	}
	return path, nil
}

// RenderPDFSegment duplicates and overlays every template concurrently.
// The returned paths follow template order; the caller owns them.
// On failure every working copy made for the segment is removed.
func (r *SegmentRenderer) RenderPDFSegment(ctx context.Context, username string, templates []Template, variables Variables, answers map[string]any) ([]string, error) {
	paths := make([]string, len(templates))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range templates {
		g.Go(func() error {
			path, err := r.duplicate(gctx, username, t)
			if err != nil {
				return err
			}
			paths[i] = path

			overlay := ComputeOverlay(t, variables, answers)
			if err := r.overlayer.ApplyOverlay(gctx, path, overlay); err != nil {
				return fmt.Errorf("template %s: %w", t.ID, wrapOnce(ErrOverlay, err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if rmErr := fileutil.RemoveFiles(paths...); rmErr != nil {
			r.logOrNop().Warn("intermediate cleanup failed", "error", fmt.Errorf("%w: %v", ErrCleanup, rmErr))
		}
		return nil, err
	}
	return paths, nil
}

func (r *SegmentRenderer) logOrNop() *logger.Logger {
	if r.log == nil {
		return logger.Nop()
	}
	return r.log
}

// duplicate makes the working copy of a PDF template. Inline bytes are
// written out directly; other templates are copied by the store.
func (r *SegmentRenderer) duplicate(ctx context.Context, username string, t Template) (string, error) {
	if len(t.PDF) > 0 {
		path, err := fileutil.WriteTemp(r.workDir, t.PDF, "pdf")
		if err != nil {
			return "", fmt.Errorf("%w: inline template: %v", ErrOverlay, err)
		}
		return path, nil
	}

	if r.pdfs == nil {
		return "", fmt.Errorf("%w: no PDF template store configured", ErrUpstreamFetch)
	}
	path, err := r.pdfs.DuplicateTemplatePDF(ctx, username, t.ID)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", t.ID, wrapOnce(ErrUpstreamFetch, err))
	}
	return path, nil
}

// wrapOnce wraps err with sentinel unless it already matches it.
func wrapOnce(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
