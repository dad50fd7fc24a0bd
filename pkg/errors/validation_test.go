package errors

import (
	"testing"
)

func TestValidateTab(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"four spaces", "    ", false},
		{"tab", "\t", false},
		{"stars", "****", false},

		{"newline", "  \n", true},
		{"carriage return", "\r", true},
		{"null byte", "\x00", true},
		{"too long", string(make([]byte, 40)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTab(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTab(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidOption) {
				t.Errorf("ValidateTab(%q) code = %v", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidateTagName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "script", false},
		{"namespaced", "svg:style", false},
		{"dashed", "x-code", false},
		{"underscore", "_raw", false},

		{"empty", "", true},
		{"leading digit", "1tag", true},
		{"space", "my tag", true},
		{"angle", "<script>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTagName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTagName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "tree.svg", false},
		{"nested", "out/tree.dot", false},
		{"absolute", "/tmp/tree.svg", false},
		{"dots in name", "a..b.svg", false},

		{"empty", "", true},
		{"traversal", "../tree.svg", true},
		{"windows traversal", "out\\..\\x", true},
		{"null byte", "a\x00b", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
