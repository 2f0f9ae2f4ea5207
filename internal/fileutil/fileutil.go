// Package fileutil provides uniquely named temporary files for the
// assembly pipeline. Names embed a random UUID so concurrent requests
// never share a path.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// TempPrefix starts every temporary file name created by this package.
const TempPrefix = "guide2pdf-"

// tempFilePermissions keeps intermediates private to the service user.
const tempFilePermissions = 0o600

// CreateTemp creates a new empty file named TempPrefix<uuid>.<extension> in dir.
// An empty dir means os.TempDir(). The file is created exclusively.
func CreateTemp(dir, extension string) (*os.File, error) {
	if err := ValidateExtension(extension); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = os.TempDir()
	}
	name := filepath.Join(dir, TempPrefix+uuid.NewString()+"."+extension)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, tempFilePermissions) // #nosec G304 -- generated name
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	return f, nil
}

// WriteTempFile creates a temporary file with the given content and extension.
// Returns the file path and a cleanup function to remove the file.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	path, err = WriteTemp("", []byte(content), extension)
	if err != nil {
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}

// WriteTemp writes data to a new temporary file in dir and returns its path.
// The file is removed again if writing fails.
func WriteTemp(dir string, data []byte, extension string) (string, error) {
	f, err := CreateTemp(dir, extension)
	if err != nil {
		return "", err
	}
	path := f.Name()

	if _, writeErr := f.Write(data); writeErr != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr := f.Close(); closeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	return path, nil
}

// CopyToTemp duplicates src into a new temporary file in dir.
// src is only read; the copy is owned by the caller.
func CopyToTemp(dir, src string) (string, error) {
	in, err := os.Open(src) // #nosec G304 -- path comes from the template store
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(src), err)
	}
	defer in.Close()

	ext := strings.TrimPrefix(filepath.Ext(src), ".")
	if ext == "" {
		ext = "pdf"
	}
	out, err := CreateTemp(dir, ext)
	if err != nil {
		return "", err
	}
	path := out.Name()

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("copying %s: %w", filepath.Base(src), err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing copy of %s: %w", filepath.Base(src), err)
	}
	return path, nil
}

// RemoveFiles deletes every non-empty path. Missing files are not errors.
// All paths are attempted; failures are joined.
func RemoveFiles(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
