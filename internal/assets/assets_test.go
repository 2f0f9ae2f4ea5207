package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestValidateAssetName - Name validation
// ---------------------------------------------------------------------------

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "guide", false},
		{"dash and digits", "court-form-2", false},
		{"empty", "", true},
		{"forward slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"dot", "guide.css", true},
		{"traversal", "..", true},
		{"null byte", "gu\x00ide", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAssetName) {
				t.Errorf("error = %v, want ErrInvalidAssetName", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestEmbeddedLoader - Built-in styles
// ---------------------------------------------------------------------------

func TestLoadStyle_Embedded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		style    string
		contains string
		wantErr  error
	}{
		{"default style", DefaultStyleName, "page-break-before", nil},
		{"plain style", "plain", "Times New Roman", nil},
		{"unknown style", "nope", "", ErrStyleNotFound},
		{"invalid name", "../guide", "", ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadStyle(tt.style)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.style, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.style, err)
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("LoadStyle(%q) lacks %q", tt.style, tt.contains)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFilesystemLoader - Custom style directory
// ---------------------------------------------------------------------------

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file.css")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid directory", t.TempDir(), false},
		{"empty path", "", true},
		{"missing directory", filepath.Join(t.TempDir(), "missing"), true},
		{"file instead of directory", file, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewFilesystemLoader(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFilesystemLoader(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBasePath) {
				t.Errorf("error = %v, want ErrInvalidBasePath", err)
			}
		})
	}
}

func TestFilesystemLoader_LoadStyle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "court.css"), []byte("body{color:navy}"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatal(err)
	}

	got, err := loader.LoadStyle("court")
	if err != nil {
		t.Fatalf("LoadStyle() error = %v", err)
	}
	if got != "body{color:navy}" {
		t.Errorf("LoadStyle() = %q", got)
	}

	if _, err := loader.LoadStyle("absent"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(absent) error = %v, want ErrStyleNotFound", err)
	}
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := filepath.Join(t.TempDir(), "secret.css")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(dir, "escape.css")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loader.LoadStyle("escape"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadStyle(escape) error = %v, want ErrPathTraversal", err)
	}
}

// ---------------------------------------------------------------------------
// TestStyleResolver - Custom first, embedded fallback
// ---------------------------------------------------------------------------

func TestStyleResolver(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "guide.css"), []byte("/* custom guide */"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolver, err := NewStyleResolver(dir)
	if err != nil {
		t.Fatalf("NewStyleResolver() error = %v", err)
	}
	if !resolver.HasCustomLoader() {
		t.Fatal("expected custom loader")
	}

	got, err := resolver.LoadStyle("guide")
	if err != nil || got != "/* custom guide */" {
		t.Errorf("LoadStyle(guide) = %q, %v; want custom copy", got, err)
	}

	got, err = resolver.LoadStyle("plain")
	if err != nil || !strings.Contains(got, "Times New Roman") {
		t.Errorf("LoadStyle(plain) = %q, %v; want embedded fallback", got, err)
	}

	if _, err := resolver.LoadStyle("a.b"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("LoadStyle(a.b) error = %v, want ErrInvalidAssetName", err)
	}
}

func TestNewStyleResolver(t *testing.T) {
	t.Parallel()

	resolver, err := NewStyleResolver("")
	if err != nil {
		t.Fatalf("NewStyleResolver(\"\") error = %v", err)
	}
	if resolver.HasCustomLoader() {
		t.Error("expected embedded only")
	}

	if _, err := NewStyleResolver("/nonexistent/path/abc123xyz"); !errors.Is(err, ErrInvalidBasePath) {
		t.Errorf("NewStyleResolver(missing) error = %v, want ErrInvalidBasePath", err)
	}
}
