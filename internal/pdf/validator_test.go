package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidator_CheckPDF(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit

	tempDir := t.TempDir()
	validPath := writeFormPDF(t, tempDir)
	garbagePath := filepath.Join(tempDir, "garbage.pdf")
	largePath := filepath.Join(tempDir, "large.pdf")
	emptyPath := filepath.Join(tempDir, "empty.pdf")
	textPath := filepath.Join(tempDir, "document.txt")

	if err := os.WriteFile(garbagePath, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.WriteFile(largePath, make([]byte, 2*1024*1024), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.WriteFile(emptyPath, []byte{}, 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.WriteFile(textPath, []byte("text"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		expectValid bool
		errorMsg    string
	}{
		{name: "valid form", path: validPath, expectValid: true},
		{name: "empty path", path: "", errorMsg: "path cannot be empty"},
		{name: "non-existent file", path: "/non/existent/file.pdf", errorMsg: "file does not exist"},
		{name: "directory", path: tempDir, errorMsg: "path is a directory"},
		{name: "wrong extension", path: textPath, errorMsg: "file is not a PDF"},
		{name: "empty file", path: emptyPath, errorMsg: "file is empty"},
		{name: "too large", path: largePath, errorMsg: "file too large"},
		{name: "garbage content", path: garbagePath, errorMsg: "invalid PDF file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.CheckPDF(tt.path)
			if result == nil {
				t.Fatalf("result should not be nil")
			}
			if result.Valid != tt.expectValid {
				t.Errorf("expected Valid=%v but got %v (%s)", tt.expectValid, result.Valid, result.Message)
			}
			if result.Path != tt.path {
				t.Errorf("expected Path=%s but got %s", tt.path, result.Path)
			}
			if tt.expectValid && result.Pages != 1 {
				t.Errorf("expected 1 page, got %d", result.Pages)
			}
			if !tt.expectValid && !strings.Contains(result.Message, tt.errorMsg) {
				t.Errorf("expected message containing %q, got %q", tt.errorMsg, result.Message)
			}
			if validator.IsValidPDF(tt.path) != tt.expectValid {
				t.Errorf("IsValidPDF disagrees with CheckPDF")
			}
		})
	}
}

func TestValidator_ValidateFiling(t *testing.T) {
	validator := NewValidator(64)
	tempDir := t.TempDir()

	write := func(name string, size int) string {
		p := filepath.Join(tempDir, name)
		if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
		return p
	}

	tests := []struct {
		name        string
		path        string
		expectError bool
	}{
		{name: "xml filing", path: write("dict.xml", 10)},
		{name: "upper case extension", path: write("DICT.XML", 10)},
		{name: "not xml", path: write("dict.pdf", 10), expectError: true},
		{name: "empty", path: write("empty.xml", 0), expectError: true},
		{name: "too large", path: write("big.xml", 65), expectError: true},
		{name: "missing", path: filepath.Join(tempDir, "missing.xml"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateFiling(tt.path)
			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidator_NoLimit(t *testing.T) {
	validator := NewValidator(0)
	path := writeFormPDF(t, t.TempDir())
	if err := validator.ValidateTemplate(path); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
