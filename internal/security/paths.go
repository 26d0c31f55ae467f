// Package security holds path checks applied before writing user-named
// output files.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxFilenameLen bounds names produced by SanitizeFilename.
const maxFilenameLen = 128

// WithinDirectory returns an error unless path resolves to a location inside
// dir. Symlinks in existing parents of path are resolved first, so a link
// pointing out of dir is rejected even when the final file does not exist yet.
func WithinDirectory(path, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}

	canonicalDir := resolveExisting(absDir)
	canonicalPath := resolveExisting(absPath)

	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}

// resolveExisting evaluates symlinks in the longest existing prefix of an
// absolute path and re-attaches the remainder.
func resolveExisting(abs string) string {
	for check := abs; ; {
		if resolved, err := filepath.EvalSymlinks(check); err == nil {
			rest, _ := filepath.Rel(check, abs)
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(check)
		if parent == check {
			return abs
		}
		check = parent
	}
}

// SanitizeFilename makes a safe file name component from an arbitrary
// identifier such as a tile code. Runs of characters other than ASCII
// letters, digits, dot, underscore or dash become a single underscore.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
