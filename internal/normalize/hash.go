package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// The content hash recognizes the same real-world posting across providers
// and re-ingestions, so the key normalization has to treat "Google Inc." /
// "Google" and "SWE Intern - Summer 2026" / "swe intern" as equal. All three
// key functions are idempotent: applying them twice yields the same string.

var (
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	seasonYearRe = regexp.MustCompile(`\b(?:summer|fall|autumn|winter|spring)?\s*20\d{2}(?:\s*[-/]\s*(?:20)?\d{2})?\b`)
	classOfRe    = regexp.MustCompile(`\bclass of\s*20\d{2}\b`)
)

var seasonWords = map[string]bool{
	"summer": true,
	"fall":   true,
	"autumn": true,
	"winter": true,
	"spring": true,
}

var corpSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"llc":          true,
	"ltd":          true,
	"limited":      true,
	"co":           true,
	"company":      true,
	"plc":          true,
	"gmbh":         true,
	"ag":           true,
	"sa":           true,
}

// CompanyKey normalizes a free-text company name for identity comparison:
// lowercase, punctuation stripped, whitespace collapsed, trailing corporate
// suffixes removed.
func CompanyKey(name string) string {
	s := strings.ToLower(CleanText(name))
	s = punctRe.ReplaceAllString(s, " ")
	fields := strings.Fields(s)
	for len(fields) > 1 && corpSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// TitleKey normalizes a posting title for identity comparison: lowercase,
// punctuation stripped, season/year and class-year suffixes removed.
func TitleKey(title string) string {
	s := strings.ToLower(CleanText(title))
	s = punctRe.ReplaceAllString(s, " ")
	s = classOfRe.ReplaceAllString(s, " ")
	s = seasonYearRe.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if seasonWords[f] {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// LocationKey normalizes a location for identity comparison.
func LocationKey(loc string) string {
	s := strings.ToLower(NormalizeLocation(loc))
	s = punctRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ContentHash fingerprints the normalized company identity + title +
// location. This is the single dedup key for the whole pipeline.
func ContentHash(company, title, location string) string {
	key := CompanyKey(company) + "|" + TitleKey(title) + "|" + LocationKey(location)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
