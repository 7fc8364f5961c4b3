package core

import (
	"regexp"
	"slices"
	"strings"
)

var (
	curpPattern  = regexp.MustCompile(`^[A-Z][AEIOUX][A-Z]{2}\d{6}[HMX][A-Z]{5}[0-9A-Z]\d$`)
	rfcPattern   = regexp.MustCompile(`^[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3}$`)
	nssPattern   = regexp.MustCompile(`^\d{11}$`)
	statePattern = regexp.MustCompile(`^[A-Z]{2,4}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func NormalizeID(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func ValidCURP(value string) bool { return curpPattern.MatchString(NormalizeID(value)) }

// ValidRFC accepts both the 12 character company form and the 13 character personal form.
func ValidRFC(value string) bool { return rfcPattern.MatchString(NormalizeID(value)) }

func ValidNSS(value string) bool { return nssPattern.MatchString(strings.TrimSpace(value)) }

func ValidStateCode(value string) bool { return statePattern.MatchString(NormalizeID(value)) }

func ValidEmail(value string) bool { return emailPattern.MatchString(strings.TrimSpace(value)) }

func ValidRiskClass(value string) bool { return slices.Contains(RiskClasses, NormalizeID(value)) }

func ValidModule(value string) bool { return slices.Contains(Modules, value) }
