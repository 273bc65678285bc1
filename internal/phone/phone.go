// Package phone converts phone numbers between the local display convention
// and the E.164 wire format used by storage and the voice provider.
//
// Home country is Israel (+972). Couriers and admins type numbers the local
// way (050-123-4567, 0501234567, 501234567); everything persisted or handed
// to the provider must be E.164.
package phone

import (
	"regexp"
	"strings"
)

const countryCode = "+972"

var (
	e164Re      = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	localRe     = regexp.MustCompile(`^0\d{8,9}$`)
	national9Re = regexp.MustCompile(`^\d{9}$`)
)

// ToDisplay renders a wire-format number for human operators.
// Home-country numbers lose the +972 prefix and gain 0XX-XXX-XXXX separators;
// foreign numbers pass through unchanged.
func ToDisplay(wire string) string {
	if wire == "" {
		return ""
	}
	if !strings.HasPrefix(wire, countryCode) {
		return wire
	}
	rest := wire[len(countryCode):]
	if len(rest) == 9 {
		return "0" + rest[:2] + "-" + rest[2:5] + "-" + rest[5:]
	}
	// Unexpected length: show without the country prefix rather than guessing
	// at separator positions.
	return "0" + rest
}

// ToWire canonicalizes user input to a single leading-"+" international form.
// Anything already starting with "+" passes through unchanged, including
// foreign numbers.
func ToWire(input string) string {
	cleaned := clean(input)
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "0") {
		return countryCode + cleaned[1:]
	}
	if national9Re.MatchString(cleaned) {
		return countryCode + cleaned
	}
	return "+" + cleaned
}

// IsValidFormat accepts E.164, home-country local form (leading 0 + 8-9
// digits), or a bare 9-digit national number.
func IsValidFormat(input string) bool {
	cleaned := clean(input)
	if cleaned == "" {
		return false
	}
	return e164Re.MatchString(cleaned) || localRe.MatchString(cleaned) || national9Re.MatchString(cleaned)
}

// IsE164 accepts only the canonical wire form.
func IsE164(input string) bool {
	return e164Re.MatchString(strings.TrimSpace(input))
}

// Mask keeps only the last 4 digits of a number. Used everywhere a customer
// number touches a persisted or displayed field.
func Mask(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}
