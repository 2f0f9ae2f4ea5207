package store

// Notes:
// - Tests run against a sqlite database in a temporary directory.
// - The postgres dialector shares every query; it is only exercised through
//   Open's driver switch.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/datatypes"

	guide2pdf "github.com/alnah/go-guide2pdf"
	"github.com/alnah/go-guide2pdf/internal/pdftest"
)

const guideXML = `<GUIDE>
  <VARIABLES>
    <VARIABLE NAME="Client Name" TYPE="Text"/>
    <VARIABLE NAME="County" TYPE="MC" VALUE="Cook"/>
  </VARIABLES>
</GUIDE>`

type fixture struct {
	store  *Store
	pdfDir string
	work   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{pdfDir: filepath.Join(dir, "pdf"), work: filepath.Join(dir, "work")}
	for _, d := range []string{f.pdfDir, f.work} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	s, err := Open(ctx, "sqlite", filepath.Join(dir, "guide2pdf.db"), Options{PDFDir: f.pdfDir, WorkDir: f.work})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	f.store = s

	mustSave(t, s.SaveGuide(ctx, &Guide{ID: "g1", Owner: "ada", Title: "Eviction", XML: guideXML}))
	mustSave(t, s.SaveGuide(ctx, &Guide{ID: "g2", Owner: "ada"}))
	mustSave(t, s.SaveGuide(ctx, &Guide{ID: "g3", Owner: "bob", XML: guideXML}))

	rows := []*TemplateRow{
		{ID: "closing", GuideID: "g1", Owner: "ada", Position: 3, Active: true, Kind: "text", Content: "<p>bye</p>"},
		{ID: "intro", GuideID: "g1", Owner: "ada", Position: 1, Active: true, Kind: "text", Condition: "x == true", Content: "<p>hi</p>"},
		{ID: "draft", GuideID: "g1", Owner: "ada", Position: 2, Active: false, Kind: "text"},
		{
			ID: "form", GuideID: "g1", Owner: "ada", Position: 2, Active: true, Kind: "PDF", PDFFile: "form.pdf",
			Boxes: datatypes.JSON(`[{"page":1,"x":72,"y":500,"variable":"client name"},{"page":2,"x":10,"y":10,"variable":"agree","checkbox":true}]`),
		},
		{ID: "escape", GuideID: "g1", Owner: "ada", Position: 9, Active: false, Kind: "pdf", PDFFile: "../secret.pdf"},
	}
	for _, r := range rows {
		mustSave(t, s.SaveTemplate(ctx, r))
	}
	pdftest.Write(t, filepath.Join(f.pdfDir, "form.pdf"), "form", 2)
	return f
}

func mustSave(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("saving fixture: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestOpen
// ---------------------------------------------------------------------------

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "x", Options{})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Open() error = %v, want ErrUnknownDriver", err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestTemplatesForGuide - Active templates in position order
// ---------------------------------------------------------------------------

func TestTemplatesForGuide(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	got, err := f.store.TemplatesForGuide(context.Background(), "ada", "g1")
	if err != nil {
		t.Fatalf("TemplatesForGuide() error = %v", err)
	}

	want := []string{"intro", "form", "closing"}
	if len(got) != len(want) {
		t.Fatalf("got %d templates, want %d: %+v", len(got), len(want), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("template %d = %s, want %s", i, got[i].ID, id)
		}
		if !got[i].Active {
			t.Errorf("template %s not active", got[i].ID)
		}
	}

	intro, form := got[0], got[1]
	if intro.Kind != guide2pdf.KindText || intro.Condition != "x == true" || intro.GuideID != "g1" {
		t.Errorf("intro = %+v", intro)
	}
	if form.Kind != guide2pdf.KindPDF {
		t.Errorf("form kind = %q, want pdf", form.Kind)
	}
	if len(form.Boxes) != 2 || form.Boxes[0].Variable != "client name" || form.Boxes[0].Y != 500 || !form.Boxes[1].Checkbox {
		t.Errorf("form boxes = %+v", form.Boxes)
	}
}

func TestTemplatesForGuide_LegacyTextFlag(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// rows imported from the file-based store carry the text "true"
	if err := f.store.db.Exec(`UPDATE templates SET active = 'true' WHERE id = ?`, "draft").Error; err != nil {
		t.Fatal(err)
	}

	got, err := f.store.TemplatesForGuide(ctx, "ada", "g1")
	if err != nil {
		t.Fatalf("TemplatesForGuide() error = %v", err)
	}
	if len(got) != 4 || got[1].ID != "draft" {
		t.Errorf("expected draft to be active now, got %+v", got)
	}
}

func TestTemplatesForGuide_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name, user, guide string
	}{
		{"unknown guide", "ada", "nope"},
		{"other owner", "ada", "g3"},
		{"wrong user", "bob", "g1"},
	}
	for _, tt := range tests {
		if _, err := f.store.TemplatesForGuide(ctx, tt.user, tt.guide); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: error = %v, want ErrNotFound", tt.name, err)
		}
	}

	got, err := f.store.TemplatesForGuide(ctx, "ada", "g2")
	if err != nil || len(got) != 0 {
		t.Errorf("empty guide = %v, %v; want no templates", got, err)
	}
}

// ---------------------------------------------------------------------------
// TestTemplate
// ---------------------------------------------------------------------------

func TestTemplate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	got, err := f.store.Template(ctx, "ada", "draft")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	if got.ID != "draft" || got.Active {
		t.Errorf("Template() = %+v", got)
	}

	if _, err := f.store.Template(ctx, "bob", "draft"); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign Template() error = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// TestGuideVariables - Declarations from the guide XML
// ---------------------------------------------------------------------------

func TestGuideVariables(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	got, err := f.store.GuideVariables(ctx, "ada", "g1")
	if err != nil {
		t.Fatalf("GuideVariables() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d variables, want 2: %+v", len(got), got)
	}
	name := got["client name"]
	if name.Name != "Client Name" || name.Type != "Text" || name.Value != nil || name.Source != guide2pdf.SourceGuide {
		t.Errorf("client name = %+v", name)
	}
	if got["county"].Value != "Cook" {
		t.Errorf("county = %+v, want default Cook", got["county"])
	}

	empty, err := f.store.GuideVariables(ctx, "ada", "g2")
	if err != nil || len(empty) != 0 {
		t.Errorf("guide without XML = %v, %v; want empty", empty, err)
	}
}

func TestGuideVariables_MalformedXML(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	mustSave(t, f.store.SaveGuide(ctx, &Guide{ID: "g1", Owner: "ada", XML: "<GUIDE><VARIABLE"}))

	if _, err := f.store.GuideVariables(ctx, "ada", "g1"); err == nil {
		t.Error("expected an error for malformed XML")
	}
}

// ---------------------------------------------------------------------------
// TestDuplicateTemplatePDF - Copy on read
// ---------------------------------------------------------------------------

func TestDuplicateTemplatePDF(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	original := filepath.Join(f.pdfDir, "form.pdf")
	before, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}

	path, err := f.store.DuplicateTemplatePDF(context.Background(), "ada", "form")
	if err != nil {
		t.Fatalf("DuplicateTemplatePDF() error = %v", err)
	}
	if filepath.Dir(path) != f.work {
		t.Errorf("copy %s not in work dir %s", path, f.work)
	}
	if n := pdftest.PageCount(t, path); n != 2 {
		t.Errorf("copy has %d pages, want 2", n)
	}

	// the copy is independent of the original
	if err := os.WriteFile(path, []byte("scribbled"), 0o600); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("original template file changed")
	}
}

func TestDuplicateTemplatePDF_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		template string
		wantErr  error
	}{
		{"unknown template", "nope", ErrNotFound},
		{"no file", "intro", ErrInvalidPDFFile},
		{"path traversal", "escape", ErrInvalidPDFFile},
	}
	for _, tt := range tests {
		if _, err := f.store.DuplicateTemplatePDF(ctx, "ada", tt.template); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}

	entries, err := os.ReadDir(f.work)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("work dir not empty after failures: %v", entries)
	}
}

// ---------------------------------------------------------------------------
// TestFlag_Scan - Boolean and legacy text values
// ---------------------------------------------------------------------------

func TestFlag_Scan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src     any
		want    Flag
		wantErr bool
	}{
		{true, true, false},
		{false, false, false},
		{int64(1), true, false},
		{int64(0), false, false},
		{"true", true, false},
		{[]byte("false"), false, false},
		{" TRUE ", true, false},
		{"", false, false},
		{nil, false, false},
		{"yes", false, true},
		{3.5, false, true},
	}

	for _, tt := range tests {
		var f Flag
		err := f.Scan(tt.src)
		if (err != nil) != tt.wantErr {
			t.Errorf("Scan(%#v) error = %v, wantErr %v", tt.src, err, tt.wantErr)
			continue
		}
		if f != tt.want {
			t.Errorf("Scan(%#v) = %v, want %v", tt.src, f, tt.want)
		}
	}
}
