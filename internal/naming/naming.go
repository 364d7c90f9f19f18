// Package naming produces safe disposition filenames for responses.
// Sanitized names are used only for the outgoing Content-Disposition hint,
// never for path construction on disk.
package naming

import (
	"path"
	"path/filepath"
	"strings"
)

// MaxBaseLen bounds the sanitized base name (extension excluded).
const MaxBaseLen = 64

// Placeholder is used when sanitization leaves nothing usable.
const Placeholder = "video"

// DefaultExt is applied when the caller-supplied name has no extension.
const DefaultExt = ".mp4"

// Sanitize reduces a caller-supplied display name to the allowed character
// set (alphanumeric, dot, dash, underscore), strips any directory
// components, bounds the length, and falls back to a placeholder when the
// result is empty.
func Sanitize(name string) string {
	// Drop directory components from both path flavors.
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(name)

	ext := sanitizeToken(filepath.Ext(name))
	base := sanitizeToken(strings.TrimSuffix(name, filepath.Ext(name)))

	base = strings.Trim(base, ".")
	if base == "" {
		base = Placeholder
	}
	if len(base) > MaxBaseLen {
		base = base[:MaxBaseLen]
	}
	if ext == "" || ext == "." {
		ext = DefaultExt
	}
	return base + ext
}

// Disposition returns the hint filename for a response: the sanitized
// original name, prefixed with "shorts_" when the output was converted.
func Disposition(original string, converted bool) string {
	name := Sanitize(original)
	if converted {
		return "shorts_" + name
	}
	return name
}

func sanitizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
