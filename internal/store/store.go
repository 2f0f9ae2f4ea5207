// Package store keeps guides, templates and PDF template files.
//
// Rows live in a SQL database reached through GORM (sqlite or postgres).
// PDF template files live under a directory on disk and are never
// modified: DuplicateTemplatePDF hands out private working copies.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	guide2pdf "github.com/alnah/go-guide2pdf"
	"github.com/alnah/go-guide2pdf/internal/fileutil"
	"github.com/alnah/go-guide2pdf/internal/guidexml"
	"github.com/alnah/go-guide2pdf/internal/logger"
)

// Sentinel errors for store operations.
var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownDriver  = errors.New("unknown database driver")
	ErrInvalidPDFFile = errors.New("invalid PDF template file")
)

// Compile-time interface checks.
var (
	_ guide2pdf.TemplateStore    = (*Store)(nil)
	_ guide2pdf.VariableStore    = (*Store)(nil)
	_ guide2pdf.PDFTemplateStore = (*Store)(nil)
)

// Store implements the template, variable and PDF template stores.
type Store struct {
	db      *gorm.DB
	pdfDir  string
	workDir string
	log     *logger.Logger
}

// Options configures a Store.
type Options struct {
	PDFDir  string // canonical PDF template files
	WorkDir string // destination of working copies, empty = os.TempDir()
	Logger  *logger.Logger
}

// Open connects to the database for driver ("sqlite" or "postgres") and
// migrates the schema.
func Open(ctx context.Context, driver, dsn string, opts Options) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}

	s := New(db, opts)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database.
func New(db *gorm.DB, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		db:      db,
		pdfDir:  opts.PDFDir,
		workDir: opts.WorkDir,
		log:     log.With("component", "store"),
	}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Guide{}, &TemplateRow{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveGuide inserts or replaces a guide.
func (s *Store) SaveGuide(ctx context.Context, g *Guide) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(g).Error
}

// SaveTemplate inserts or replaces a template.
func (s *Store) SaveTemplate(ctx context.Context, t *TemplateRow) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(t).Error
}

// TemplatesForGuide returns the active templates of a guide owned by
// username, in position order.
func (s *Store) TemplatesForGuide(ctx context.Context, username, guideID string) ([]guide2pdf.Template, error) {
	if _, err := s.guide(ctx, username, guideID); err != nil {
		return nil, err
	}

	var rows []TemplateRow
	err := s.db.WithContext(ctx).
		Where("guide_id = ? AND owner = ?", guideID, username).
		Order("position ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing templates of guide %s: %w", guideID, err)
	}

	out := make([]guide2pdf.Template, 0, len(rows))
	for _, row := range rows {
		if !row.Active {
			continue
		}
		t, err := row.template()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Template returns one template owned by username, active or not.
func (s *Store) Template(ctx context.Context, username, templateID string) (guide2pdf.Template, error) {
	row, err := s.templateRow(ctx, username, templateID)
	if err != nil {
		return guide2pdf.Template{}, err
	}
	return row.template()
}

// GuideVariables returns the variables declared in the guide XML, keyed by
// lower-cased name. A guide without XML declares nothing.
func (s *Store) GuideVariables(ctx context.Context, username, guideID string) (map[string]guide2pdf.Variable, error) {
	g, err := s.guide(ctx, username, guideID)
	if err != nil {
		return nil, err
	}

	declared, err := guidexml.ParseString(g.XML)
	if err != nil {
		return nil, fmt.Errorf("guide %s: %w", guideID, err)
	}

	out := make(map[string]guide2pdf.Variable, len(declared))
	for key, v := range guidexml.ByName(declared) {
		gv := guide2pdf.Variable{Name: v.Name, Type: v.Type, Source: guide2pdf.SourceGuide}
		if v.HasValue {
			gv.Value = v.Value
		}
		out[key] = gv
	}
	return out, nil
}

// DuplicateTemplatePDF copies the file of a PDF template into the work
// directory. The copy belongs to the caller; the original is untouched.
func (s *Store) DuplicateTemplatePDF(ctx context.Context, username, templateID string) (string, error) {
	row, err := s.templateRow(ctx, username, templateID)
	if err != nil {
		return "", err
	}
	if row.PDFFile == "" || !filepath.IsLocal(row.PDFFile) {
		return "", fmt.Errorf("%w: template %s: %q", ErrInvalidPDFFile, templateID, row.PDFFile)
	}

	path, err := fileutil.CopyToTemp(s.workDir, filepath.Join(s.pdfDir, row.PDFFile))
	if err != nil {
		return "", fmt.Errorf("duplicating template %s: %w", templateID, err)
	}
	s.log.Debug("template duplicated", "template_id", templateID, "path", path)
	return path, nil
}

func (s *Store) guide(ctx context.Context, username, guideID string) (*Guide, error) {
	var g Guide
	err := s.db.WithContext(ctx).Where("id = ? AND owner = ?", guideID, username).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("guide %s: %w", guideID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading guide %s: %w", guideID, err)
	}
	return &g, nil
}

func (s *Store) templateRow(ctx context.Context, username, templateID string) (*TemplateRow, error) {
	var row TemplateRow
	err := s.db.WithContext(ctx).Where("id = ? AND owner = ?", templateID, username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("template %s: %w", templateID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", templateID, err)
	}
	return &row, nil
}

func (row *TemplateRow) template() (guide2pdf.Template, error) {
	t := guide2pdf.Template{
		ID:        row.ID,
		GuideID:   row.GuideID,
		Title:     row.Title,
		Active:    bool(row.Active),
		Kind:      guide2pdf.Kind(strings.ToLower(row.Kind)),
		Condition: row.Condition,
		Format:    row.Format,
		Content:   row.Content,
	}
	if len(row.Boxes) > 0 {
		if err := json.Unmarshal(row.Boxes, &t.Boxes); err != nil {
			return guide2pdf.Template{}, fmt.Errorf("template %s: decoding boxes: %w", row.ID, err)
		}
	}
	return t, nil
}
