package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches the 3-token asset naming convention:
// pseudo-reference, random id, content tag, dash separated.
// Example: "PAfm-SWE-neongirl".
var identifierRegex = regexp.MustCompile(`^[CP][A-Za-z]{1,5}-[0-9A-Za-z]{3}-[a-z0-9]+$`)

// ValidateIdentifier validates an asset identifier against the file
// naming convention. The first token's leading letter encodes the asset
// type: 'C' for CGI, 'P' for plates.
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentifier, "identifier cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeInvalidIdentifier, "identifier too long (max 64 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidIdentifier, "identifier contains whitespace or control characters")
		}
	}

	if !identifierRegex.MatchString(id) {
		return New(ErrCodeInvalidIdentifier,
			"identifier %q does not match the <pseudo-ref>-<random-id>-<content-tag> convention", id)
	}

	return nil
}

// setIdentifierRegex matches set variant identifiers, which are
// dot-separated lowercase tokens (e.g. "lxmpicturelab.al.sorted-color.bg-black").
var setIdentifierRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// ValidateSetIdentifier validates a set variant identifier.
func ValidateSetIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentifier, "set identifier cannot be empty")
	}
	if !setIdentifierRegex.MatchString(id) {
		return New(ErrCodeInvalidIdentifier, "invalid set identifier: %q", id)
	}
	return nil
}

// ValidateRelPath validates a path used inside the workspace for safety.
// It prevents traversal outside the workspace root.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateRelPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
