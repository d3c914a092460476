// Package security keeps file access inside the directories the operator
// configured.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator accepts paths under one of its root directories.
type PathValidator struct {
	roots []string
}

// NewPathValidator creates a validator for the given roots. Empty roots are
// ignored; at least one must remain. Roots need not exist yet.
func NewPathValidator(roots ...string) (*PathValidator, error) {
	v := &PathValidator{}
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory %s: %w", r, err)
		}
		v.roots = append(v.roots, filepath.Clean(abs))
	}
	if len(v.roots) == 0 {
		return nil, fmt.Errorf("at least one directory must be configured")
	}
	return v, nil
}

// Roots returns the absolute root directories.
func (v *PathValidator) Roots() []string {
	out := make([]string, len(v.roots))
	copy(out, v.roots)
	return out
}

// ValidatePath returns an error unless path lies under one of the roots.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}

	ok, err := v.IsPathWithinRoots(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("path is outside configured directories: %s", path)
	}
	return nil
}

// IsPathWithinRoots reports whether path, and its symlink target when it is
// a symlink, are both under the same root.
func (v *PathValidator) IsPathWithinRoots(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	clean := filepath.Clean(abs)

	real := clean
	if info, err := os.Lstat(clean); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(clean); err == nil {
			real = resolved
		}
	}

	for _, root := range v.roots {
		candidates := []string{root}
		if resolved, err := filepath.EvalSymlinks(root); err == nil && resolved != root {
			candidates = append(candidates, resolved)
		}
		if within(clean, candidates) && within(real, candidates) {
			return true, nil
		}
	}
	return false, nil
}

func within(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path == dir {
			return true
		}
		prefix := dir
		if !strings.HasSuffix(prefix, string(filepath.Separator)) {
			prefix += string(filepath.Separator)
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Resolve turns path into an absolute path, joining relative paths to the
// first root, and validates the result.
func (v *PathValidator) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.roots[0], path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}
