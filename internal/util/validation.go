package util

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidPhone is returned when a phone number is not E.164 compliant.
	ErrInvalidPhone = errors.New("invalid e164 phone number")
	// ErrInvalidURL indicates that a URL failed validation.
	ErrInvalidURL = errors.New("invalid url")
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

const whatsappScheme = "whatsapp:"

// NormalizeE164 validates a phone number using the E.164 format and returns the
// normalized representation. A leading "whatsapp:" channel prefix is accepted
// and stripped.
func NormalizeE164(value string) (string, error) {
	trimmed := StripWhatsAppPrefix(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidPhone)
	}

	if !e164Pattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, trimmed)
	}

	return trimmed, nil
}

// StripWhatsAppPrefix removes the "whatsapp:" channel prefix Twilio puts on
// addresses.
func StripWhatsAppPrefix(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(strings.ToLower(trimmed), whatsappScheme) {
		return strings.TrimSpace(trimmed[len(whatsappScheme):])
	}
	return trimmed
}

// FormatWhatsAppAddress returns the address in Twilio's "whatsapp:+123" form.
func FormatWhatsAppAddress(number string) string {
	bare := StripWhatsAppPrefix(number)
	if bare == "" {
		return ""
	}
	return whatsappScheme + bare
}

// ValidateHTTPURL ensures the provided string is a valid HTTP or HTTPS URL.
func ValidateHTTPURL(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return trimmed, nil
}

// TruncateRunes trims the supplied string to the specified rune limit. If
// limit is zero or negative it returns an empty string.
func TruncateRunes(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}

// Preview shortens free text for log fields.
func Preview(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return TruncateRunes(value, limit) + "..."
}
