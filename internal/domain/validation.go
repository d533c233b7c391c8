package domain

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	countryPattern  = regexp.MustCompile(`^[A-Z]{2}$`)
	slugUnsafeChars = regexp.MustCompile(`[^a-z0-9]+`)
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func ValidateEmail(v string) error {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || !strings.Contains(v, "@") {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return nil
}

// ValidatePassword requires at least 8 characters with one letter and one digit.
func ValidatePassword(v string) error {
	if utf8.RuneCountInString(v) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	var hasLetter, hasDigit bool
	for _, r := range v {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: password must contain a letter and a digit", ErrInvalidInput)
	}
	return nil
}

func NormalizeCountry(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func IsCountryCode(v string) bool {
	return countryPattern.MatchString(NormalizeCountry(v))
}

func IsHTTPURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "https" || parsed.Scheme == "http") && parsed.Host != ""
}

func ValidateURLs(field string, urls []string, max int) error {
	if max > 0 && len(urls) > max {
		return fmt.Errorf("%w: %s accepts at most %d urls", ErrInvalidInput, field, max)
	}
	for _, raw := range urls {
		if !IsHTTPURL(raw) {
			return fmt.Errorf("%w: %s contains an invalid url", ErrInvalidInput, field)
		}
	}
	return nil
}

func ValidateRating(v int) error {
	if v < 1 || v > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	return nil
}

func ValidateText(field, v string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	if n < min || (max > 0 && n > max) {
		return fmt.Errorf("%w: %s must be between %d and %d characters", ErrInvalidInput, field, min, max)
	}
	return nil
}

func ValidateMoney(field string, v decimal.Decimal, allowZero bool) error {
	if v.IsNegative() || (!allowZero && v.IsZero()) {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidInput, field)
	}
	if v.Exponent() < -2 && !v.Equal(v.Round(2)) {
		return fmt.Errorf("%w: %s has more than two decimals", ErrInvalidInput, field)
	}
	return nil
}

func Slugify(name string) string {
	slug := slugUnsafeChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
