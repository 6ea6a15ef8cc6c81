package errors

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ValidateInputPath validates a user-supplied input file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Extension must be one of exts (case-insensitive) when exts is non-empty
func ValidateInputPath(path string, exts ...string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if len(exts) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported file extension %q (want one of %s)", ext, strings.Join(exts, ", "))
}

// ValidateCellIndex parses a cell index from a path segment or flag value.
// The index must be a non-negative integer. Whether it lies inside a grid is
// for the caller to decide.
func ValidateCellIndex(s string) (int, error) {
	if s == "" {
		return 0, New(ErrCodeInvalidInput, "cell index cannot be empty")
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, New(ErrCodeInvalidInput, "cell index must be an integer: %q", s)
	}
	if i < 0 {
		return 0, New(ErrCodeInvalidInput, "cell index must be non-negative: %d", i)
	}
	return i, nil
}

// columnNameRegex matches attribute column names accepted for shapefile import.
var columnNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidateColumnName validates an attribute column name.
func ValidateColumnName(name string) error {
	if !columnNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid column name: %q", name)
	}
	return nil
}

// ValidateURL validates a connection URL. It requires one of the given
// schemes, e.g. "mongodb", "mongodb+srv", "redis".
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes: %s", strings.Join(schemes, ", "))
}
