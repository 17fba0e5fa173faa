// Package integrals selects the reader or writer for an integral source.
package integrals

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/integrals/fcidump"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/integrals/sqlite"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/integrals/yamlfile"
)

// Format names accepted by New, NewWriter and the --format flag.
const (
	FormatAuto    = "auto"
	FormatYAML    = "yaml"
	FormatFCIDUMP = "fcidump"
	FormatSQLite  = "sqlite"
)

// ErrUnknownFormat is returned for a format name or file that no back-end handles.
var ErrUnknownFormat = errors.New("integrals: unknown format")

// Detect guesses the format of path from its name.
func Detect(path string) (string, error) {
	base := strings.ToLower(filepath.Base(path))
	switch filepath.Ext(base) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".fcidump", ".fcid":
		return FormatFCIDUMP, nil
	}
	if strings.Contains(base, "fcidump") {
		return FormatFCIDUMP, nil
	}
	return "", fmt.Errorf("%w: cannot infer format of %s", ErrUnknownFormat, path)
}

// Resolve turns "auto" or "" into a concrete format for path.
func Resolve(format, path string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == FormatAuto {
		return Detect(path)
	}
	return format, nil
}

// New returns the loader for a concrete format.
func New(format string) (domain.IntegralLoader, error) {
	switch format {
	case FormatYAML:
		return yamlfile.NewLoader(), nil
	case FormatFCIDUMP:
		return fcidump.NewLoader(), nil
	case FormatSQLite:
		return sqlite.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// NewWriter returns the writer for a concrete format. FCIDUMP is read-only.
func NewWriter(format string) (domain.IntegralWriter, error) {
	switch format {
	case FormatYAML:
		return yamlfile.NewLoader(), nil
	case FormatSQLite:
		return sqlite.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: no writer for %q", ErrUnknownFormat, format)
	}
}
