package middleware

import (
	"errors"
	"fmt"
	"strings"
)

// Input validation and sanitization utilities

// MaxQueryLen batas panjang teks query yang diterima.
const MaxQueryLen = 1000

var (
	ErrQueryEmpty   = errors.New("query cannot be empty")
	ErrQueryTooLong = fmt.Errorf("query too long (max %d characters)", MaxQueryLen)
)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateQuery sanitasi + cek teks query natural language.
// Balikin teks bersih yang siap dikirim ke interpreter.
func ValidateQuery(query string) (string, error) {
	cleaned := SanitizeString(query)
	if cleaned == "" {
		return "", ErrQueryEmpty
	}
	if len(cleaned) > MaxQueryLen {
		return "", ErrQueryTooLong
	}
	return cleaned, nil
}
