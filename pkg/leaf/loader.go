package leaf

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads the raw contents of a file. Results are cached by the
// session, so a Loader does not need to cache.
type Loader interface {
	Load(path string) (string, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(path string) (string, error)

func (f LoaderFunc) Load(path string) (string, error) {
	return f(path)
}

// OSLoader reads files from the local filesystem
type OSLoader struct{}

func (OSLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FSLoader reads files from an fs.FS, such as an embed.FS. Leading slashes
// are stripped since fs.FS paths are always relative.
type FSLoader struct {
	FS fs.FS
}

func (l FSLoader) Load(path string) (string, error) {
	name := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "/")
	data, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
