package assets

import "errors"

// StyleResolver reads styles from a custom directory first and falls back
// to the embedded styles for names the directory lacks.
type StyleResolver struct {
	custom   StyleLoader // nil if no custom directory configured
	embedded StyleLoader
}

// NewStyleResolver creates a StyleResolver. An empty customDir means
// embedded styles only; a set but unusable directory is an error.
func NewStyleResolver(customDir string) (*StyleResolver, error) {
	resolver := &StyleResolver{embedded: NewEmbeddedLoader()}

	if customDir != "" {
		fsLoader, err := NewFilesystemLoader(customDir)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}

	return resolver, nil
}

// LoadStyle loads a style, trying the custom directory first.
// Only not-found errors fall back; validation and I/O errors are returned.
func (r *StyleResolver) LoadStyle(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadStyle(name)
	}

	content, err := r.custom.LoadStyle(name)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, ErrStyleNotFound) {
		return "", err
	}

	return r.embedded.LoadStyle(name)
}

// HasCustomLoader returns true if a custom style directory is configured.
func (r *StyleResolver) HasCustomLoader() bool {
	return r.custom != nil
}

// Compile-time interface check.
var _ StyleLoader = (*StyleResolver)(nil)
