package normalize

import "strings"

// locationLabels are prefixes providers stick in front of the actual place.
var locationLabels = []string{"location:", "locations:", "based in:", "office:"}

// CleanText collapses runs of whitespace (including non-breaking spaces) into
// single spaces and trims the result.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeLocation tidies a free-text location: label prefixes stripped,
// comma-separated parts deduplicated case-insensitively.
func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	for _, label := range locationLabels {
		if len(loc) >= len(label) && strings.EqualFold(loc[:len(label)], label) {
			loc = strings.TrimSpace(loc[len(label):])
			break
		}
	}
	if loc == "" {
		return ""
	}

	seen := map[string]bool{}
	var out []string
	for _, p := range strings.Split(loc, ",") {
		p = CleanText(p)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}
