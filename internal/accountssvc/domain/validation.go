package domain

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"digitalbank/internal/platform/config"
)

var (
	ErrAgeRestriction   = errors.New("holder must be at least 18 years old")
	ErrInvalidPin       = errors.New("pin must be 4-6 digits, not all identical, not strictly sequential")
	ErrInvalidPhone     = errors.New("phone number must be 10-20 digits")
	ErrInvalidPrivilege = errors.New("privilege must be one of SILVER, GOLD, PREMIUM")
	ErrInvalidName      = errors.New("holder name must be non-empty and at most 255 characters")
	ErrInvalidWebsite   = errors.New("website is not a well-formed URL")
	ErrInvalidGender    = errors.New("gender must be one of Male, Female, Others")
	ErrNoFieldsToUpdate = errors.New("at least one field must be supplied for update")
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// ValidateHolderName enforces spec.md §4.1's non-empty/≤255-char rule.
func ValidateHolderName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || len(trimmed) > 255 {
		return ErrInvalidName
	}
	return nil
}

// ValidateDateOfBirth enforces the "holder must be ≥18 at creation" rule
// using whole-year arithmetic against the given reference time (normally
// time.Now().UTC(), threaded through for deterministic tests).
func ValidateDateOfBirth(dob, now time.Time) error {
	cutoff := now.AddDate(-18, 0, 0)
	if dob.After(cutoff) {
		return ErrAgeRestriction
	}
	return nil
}

// ValidatePin enforces spec.md's PIN shape: 4-6 digits, not all-identical,
// not strictly sequential ascending or descending. Policy is threaded
// through rather than hard-coded so it matches config.PinPolicy exactly.
func ValidatePin(pin string, policy config.PinPolicy) error {
	if len(pin) < policy.MinLen || len(pin) > policy.MaxLen || !digitsOnly.MatchString(pin) {
		return ErrInvalidPin
	}
	if policy.RejectUniform && isUniform(pin) {
		return ErrInvalidPin
	}
	if policy.RejectSequential && isStrictlySequential(pin) {
		return ErrInvalidPin
	}
	return nil
}

func isUniform(pin string) bool {
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			return false
		}
	}
	return true
}

func isStrictlySequential(pin string) bool {
	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[i-1]+1 {
			ascending = false
		}
		if pin[i] != pin[i-1]-1 {
			descending = false
		}
	}
	return ascending || descending
}

// ValidatePhone enforces spec.md's 10-20 digit phone shape.
func ValidatePhone(phone string, policy config.PinPolicy) error {
	if len(phone) < policy.PhoneMin || len(phone) > policy.PhoneMax || !digitsOnly.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// ValidateWebsite shape-checks an optional CURRENT-account website.
func ValidateWebsite(website *string) error {
	if website == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*website)
	if trimmed == "" {
		return nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ErrInvalidWebsite
	}
	return nil
}
