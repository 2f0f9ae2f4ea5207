package assets

// DefaultStyleName is the built-in stylesheet for guide documents.
const DefaultStyleName = "guide"

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads an embedded style by name.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}
