package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNewPathValidator(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name      string
		roots     []string
		wantRoots int
		wantError bool
	}{
		{name: "single directory", roots: []string{tempDir}, wantRoots: 1},
		{name: "several directories", roots: []string{tempDir, "/srv/dtdict/out"}, wantRoots: 2},
		{name: "empty entries skipped", roots: []string{"", tempDir, "  "}, wantRoots: 1},
		{name: "nothing configured", roots: []string{""}, wantError: true},
		{name: "no arguments", wantError: true},
		{name: "non-existent directory", roots: []string{"/non/existent/path"}, wantRoots: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator, err := NewPathValidator(tt.roots...)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := len(validator.Roots()); got != tt.wantRoots {
				t.Errorf("Expected %d roots, got %d", tt.wantRoots, got)
			}
		})
	}
}

func TestPathValidator_ValidatePath(t *testing.T) {
	inbox := t.TempDir()
	outdir := t.TempDir()
	elsewhere := t.TempDir()

	validator, err := NewPathValidator(inbox, outdir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{name: "file in inbox", path: filepath.Join(inbox, "dict.xml")},
		{name: "file in output dir", path: filepath.Join(outdir, "2024", "recepisse.pdf")},
		{name: "root itself", path: inbox},
		{name: "outside", path: filepath.Join(elsewhere, "x.xml"), wantError: true},
		{name: "traversal", path: filepath.Join(inbox, "..", "escape.xml"), wantError: true},
		{name: "sibling with common prefix", path: inbox + "-other/x.xml", wantError: true},
		{name: "empty", path: "", wantError: true},
		{name: "nul byte", path: filepath.Join(inbox, "a\x00.xml"), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePath(tt.path)
			if tt.wantError && err == nil {
				t.Errorf("Expected error for %s", tt.path)
			}
			if !tt.wantError && err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.path, err)
			}
		})
	}
}

func TestPathValidator_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.xml")
	if err := os.WriteFile(target, []byte("<x/>"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	link := filepath.Join(root, "link.xml")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	validator, err := NewPathValidator(root)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	if err := validator.ValidatePath(link); err == nil {
		t.Error("Expected symlink escaping the root to be rejected")
	}
}

func TestPathValidator_Resolve(t *testing.T) {
	root := t.TempDir()
	validator, err := NewPathValidator(root)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	got, err := validator.Resolve("dict.xml")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	abs, _ := filepath.Abs(filepath.Join(root, "dict.xml"))
	if got != abs {
		t.Errorf("Expected %s, got %s", abs, got)
	}

	if _, err := validator.Resolve("../escape.xml"); err == nil {
		t.Error("Expected relative escape to be rejected")
	}
	if _, err := validator.Resolve(""); err == nil {
		t.Error("Expected empty path to be rejected")
	}
}
