package errors

import (
	"strings"
	"testing"
)

func TestValidateInputPath(t *testing.T) {
	exts := []string{".geojson", ".json", ".shp"}
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantCode Code
	}{
		{"valid geojson", "data/parcels.geojson", false, ""},
		{"valid upper ext", "ROADS.SHP", false, ""},
		{"valid absolute", "/srv/data/x.json", false, ""},

		{"empty", "", true, ErrCodeInvalidPath},
		{"too long", strings.Repeat("a", 5000) + ".json", true, ErrCodeInvalidPath},
		{"null byte", "foo\x00bar.json", true, ErrCodeInvalidPath},
		{"newline", "foo\nbar.json", true, ErrCodeInvalidPath},
		{"wrong extension", "data.csv", true, ErrCodeInvalidFormat},
		{"no extension", "data", true, ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputPath(tt.input, exts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateInputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, tt.wantCode) {
				t.Errorf("ValidateInputPath(%q) code = %v, want %v", tt.input, GetCode(err), tt.wantCode)
			}
		})
	}

	if err := ValidateInputPath("anything.xyz"); err != nil {
		t.Errorf("no extension filter should accept any extension: %v", err)
	}
}

func TestValidateCellIndex(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"", 0, true},
		{"-1", 0, true},
		{"1.5", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidateCellIndex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCellIndex(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("wrong code: %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateCellIndex(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateColumnName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "NAME", false},
		{"underscore", "land_use", false},
		{"leading underscore", "_id", false},

		{"empty", "", true},
		{"leading digit", "1abc", true},
		{"space", "land use", true},
		{"dash", "land-use", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumnName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColumnName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		schemes []string
		wantErr bool
	}{
		{"mongodb", "mongodb://localhost:27017", []string{"mongodb", "mongodb+srv"}, false},
		{"mongodb srv", "mongodb+srv://cluster.example.com", []string{"mongodb", "mongodb+srv"}, false},
		{"redis", "redis://localhost:6379/0", []string{"redis", "rediss"}, false},

		{"empty", "", []string{"mongodb"}, true},
		{"wrong scheme", "http://localhost", []string{"mongodb"}, true},
		{"no scheme", "localhost:27017", []string{"mongodb"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input, tt.schemes...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidFormat,
		ErrCodeInvalidConfig,
		ErrCodeInvalidExtent,
		ErrCodeInvalidPath,
		ErrCodeFileNotFound,
		ErrCodeCellNotFound,
		ErrCodeStorage,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
