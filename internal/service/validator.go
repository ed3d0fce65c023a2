package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var (
	licenseRegexp      = regexp.MustCompile(`^[STFG]\d{7}[A-Z]$`)
	phoneRegexp        = regexp.MustCompile(`^(\+65)?[689]\d{7}$`)
	registrationRegexp = regexp.MustCompile(`^[A-Z]{1,3}\d{1,4}[A-Z]$`)
	codeRegexp         = regexp.MustCompile(`^[A-Z0-9_\-]{2,50}$`)
)

const (
	UsernameMinLen = 3
	PasswordMinLen = 8
)

// violations collects validation messages so a single call reports every
// problem at once.
type violations []string

func (v *violations) add(msg string, args ...any) {
	*v = append(*v, fmt.Sprintf(msg, args...))
}

func (v *violations) required(value, field string) bool {
	if strings.TrimSpace(value) == "" {
		v.add("%s is required.", field)
		return false
	}
	return true
}

func (v *violations) match(re *regexp.Regexp, value, field string) {
	if v.required(value, field) && !re.MatchString(value) {
		v.add("%s format is invalid.", field)
	}
}

func (v *violations) email(value, field string, mandatory bool) {
	if strings.TrimSpace(value) == "" {
		if mandatory {
			v.add("%s is required.", field)
		}
		return
	}
	if _, err := mail.ParseAddress(value); err != nil || strings.Contains(value, " ") {
		v.add("%s format is invalid.", field)
	}
}

func (v *violations) phone(value, field string, mandatory bool) {
	if strings.TrimSpace(value) == "" {
		if mandatory {
			v.add("%s is required.", field)
		}
		return
	}
	if !phoneRegexp.MatchString(value) {
		v.add("%s format is invalid.", field)
	}
}

func (v *violations) nonNegative(value float64, field string) {
	if value < 0 {
		v.add("%s must not be negative.", field)
	}
}

func (v *violations) coordinates(lat, lng *float64, field string) {
	if (lat == nil) != (lng == nil) {
		v.add("%s needs both latitude and longitude.", field)
		return
	}
	if lat != nil && !ValidLatLng(*lat, *lng) {
		v.add("%s coordinates are out of range.", field)
	}
}

func (v violations) empty() bool { return len(v) == 0 }

// ValidLatLng reports whether lat/lng are valid WGS84 degrees.
func ValidLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidLicense checks a Singapore driving licence number (NRIC/FIN style).
func ValidLicense(s string) bool { return licenseRegexp.MatchString(s) }

// ValidPhone checks a Singapore phone number with optional +65 prefix.
func ValidPhone(s string) bool { return phoneRegexp.MatchString(s) }

// ValidRegistration checks a Singapore vehicle registration plate.
func ValidRegistration(s string) bool { return registrationRegexp.MatchString(s) }

// normalizeKey trims and upper-cases a natural key before validation and
// uniqueness checks.
func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
