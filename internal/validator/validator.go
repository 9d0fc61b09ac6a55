// Package validator provides input validation and sanitization functions
// shared by the API handlers.
package validator

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrEmptyInput       = errors.New("input cannot be empty")
	ErrNoRecipients     = errors.New("at least one recipient is required")
	ErrTooManyRecipient = errors.New("too many recipients")
)

// MaxRecipients bounds the To+Cc list of an outgoing message.
const MaxRecipients = 100

// ValidateEmail validates email address format according to RFC 5322.
// Returns nil if valid, or an appropriate error.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	// Use Go's mail package for RFC 5322 validation
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}

	return nil
}

// NormalizeEmail lowercases and trims an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidateRecipients checks every address and the combined recipient count.
func ValidateRecipients(to, cc []string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if len(to)+len(cc) > MaxRecipients {
		return ErrTooManyRecipient
	}
	for _, addr := range append(append([]string{}, to...), cc...) {
		if err := ValidateEmail(addr); err != nil {
			return err
		}
	}
	return nil
}

// Pagination constants
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit applies the default to non-positive limits and caps the rest at MaxLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ValidatePagination validates and sanitizes pagination parameters.
// Returns sanitized limit and offset values.
func ValidatePagination(limit, offset int) (int, int) {
	limit = ClampLimit(limit)

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// SanitizeFilename removes dangerous characters from an attachment filename.
// Prevents path traversal and removes control characters.
func SanitizeFilename(filename string) string {
	// Remove path separators to prevent path traversal
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")

	filename = stripControl(filename)
	filename = strings.TrimSpace(filename)

	// Limit length to 255 characters (common filesystem limit)
	if utf8.RuneCountInString(filename) > 255 {
		runes := []rune(filename)
		filename = string(runes[:255])
	}

	if filename == "" {
		return "unnamed"
	}

	return filename
}

// SanitizeString removes control characters, trims whitespace and enforces a length limit.
func SanitizeString(input string, maxLength int) string {
	input = strings.TrimSpace(stripControl(input))

	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// FormatPhoneNumber normalizes a North American number to 1-ddd-ddd-dddd.
// Ten digit input gets the country code 1 prepended. Input without digits
// yields "" and other lengths are returned as bare digits.
func FormatPhoneNumber(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < utf8.RuneSelf {
			return r
		}
		return -1
	}, phone)

	if len(digits) == 10 {
		digits = "1" + digits
	}
	if len(digits) != 11 {
		return digits
	}
	return digits[:1] + "-" + digits[1:4] + "-" + digits[4:7] + "-" + digits[7:]
}
