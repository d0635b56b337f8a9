package errors

import (
	"strings"
	"unicode"
)

const (
	maxIDLength   = 256
	maxPathLength = 500
)

// ColorSeparator joins two colors in a color change cost key ("red->blue").
// Colors may not contain it.
const ColorSeparator = "->"

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidateID checks a box, pin or network identifier: non-empty, at most
// 256 bytes, free of control characters and surrounding whitespace. kind
// only flavors the message.
func ValidateID(kind, id string) error {
	switch {
	case id == "":
		return New(ErrCodeInvalidGraph, "%s id cannot be empty", kind)
	case len(id) > maxIDLength:
		return New(ErrCodeInvalidGraph, "%s id too long (max %d characters)", kind, maxIDLength)
	case hasControl(id):
		return New(ErrCodeInvalidGraph, "%s id %q contains invalid control characters", kind, id)
	case strings.TrimSpace(id) != id:
		return New(ErrCodeInvalidGraph, "%s id %q has surrounding whitespace", kind, id)
	}
	return nil
}

// ValidateColor checks a pin color. The empty color is allowed.
func ValidateColor(color string) error {
	switch {
	case hasControl(color):
		return New(ErrCodeInvalidGraph, "color %q contains invalid control characters", color)
	case strings.Contains(color, ColorSeparator):
		return New(ErrCodeInvalidGraph, "color %q contains %q", color, ColorSeparator)
	}
	return nil
}

// ValidatePath checks a user supplied file path: non-empty, at most 500
// bytes and free of control characters including NUL.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case hasControl(path):
		return New(ErrCodeInvalidPath, "path contains invalid characters")
	}
	return nil
}
