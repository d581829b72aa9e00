// Package secrets resolves credentials from inline values or files.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotConfigured is returned when neither a file nor a value is set.
var ErrNotConfigured = errors.New("not configured")

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or environment.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
}

// Load resolves src on the OS filesystem.
func Load(src Source) (string, error) {
	return LoadFs(afero.NewOsFs(), src)
}

// LoadFs returns the trimmed secret from src, reading File through fsys.
// An unset source yields ErrNotConfigured; an empty file is an error.
func LoadFs(fsys afero.Fs, src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := afero.ReadFile(fsys, file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
	}

	return secret, nil
}
