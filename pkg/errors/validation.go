package errors

import (
	"strings"
	"unicode"
)

// ValidateOutputName validates a generated output file name.
// Output names are written inside a caller-chosen directory, so they must be
// plain basenames:
//   - No empty names, "." or ".."
//   - No control characters or null bytes
//   - No path separators (forward or backslash)
//   - Maximum length of 255 bytes
func ValidateOutputName(name string) error {
	if name == "" || name == "." || name == ".." {
		return New(ErrCodeInvalidPath, "output name %q is not a file name", name)
	}

	const maxNameLength = 255
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidPath, "output name too long (max %d bytes)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "output name %q cannot contain path separators", name)
	}

	return nil
}

// ValidateURL validates a photo URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}

	return nil
}
