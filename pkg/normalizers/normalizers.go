// Package normalizers provides text normalization functions for entity names
package normalizers

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("remove_punctuation", RemovePunctuation)
	Register("strip_legal_suffixes", StripLegalSuffixes)
	Register("ncompany", NormalizeCompanyName)
	Register("digits_only", DigitsOnly)
	Register("alphanumeric", Alphanumeric)
}

// companyNameChain is the ordered set of normalizers behind NormalizeCompanyName
var companyNameChain = []string{
	"lowercase",
	"collapse_whitespace",
	"remove_punctuation",
	"strip_legal_suffixes",
	"collapse_whitespace",
}

// legalSuffixPattern matches legal-entity designators as whole words.
// Boundaries are captured explicitly so that non-ASCII letters count as word characters.
var legalSuffixPattern = regexp.MustCompile(
	`(^|[^\p{L}\p{N}_])(?:pty\s*ltd|proprietary\s+limited|limited|ltd|company|corporation|corp|incorporated|inc|llc|llp|lp)($|[^\p{L}\p{N}_])`,
)

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims the ends
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RemovePunctuation drops every character that is not a letter, digit, underscore,
// whitespace, hyphen or apostrophe
func RemovePunctuation(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), unicode.IsSpace(r):
			result.WriteRune(r)
		case r == '_', r == '-', r == '\'':
			result.WriteRune(r)
		}
	}
	return result.String()
}

// StripLegalSuffixes removes legal-entity designators such as "pty ltd", "limited" or "inc".
// Expects lowercase input without punctuation. Runs until no designator remains.
func StripLegalSuffixes(s string) string {
	for {
		stripped := legalSuffixPattern.ReplaceAllString(s, "${1} ${2}")
		if stripped == s {
			return s
		}
		s = stripped
	}
}

// NormalizeCompanyName canonicalizes a business name for comparison:
// - Lowercase
// - Collapse whitespace
// - Remove punctuation except hyphens and apostrophes
// - Remove legal-entity suffixes
//
// The result is idempotent: NormalizeCompanyName(NormalizeCompanyName(s)) == NormalizeCompanyName(s).
func NormalizeCompanyName(s string) string {
	return ApplyChain(s, companyNameChain...)
}

// Tokens returns the distinct whitespace-separated tokens of the normalized name, in order
func Tokens(s string) []string {
	fields := strings.Fields(NormalizeCompanyName(s))
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// CompactName returns the normalized name with everything but letters and digits removed,
// e.g. "Example Technology Pty Ltd" -> "exampletechnology"
func CompactName(s string) string {
	return Alphanumeric(NormalizeCompanyName(s))
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
