package normalize

import (
	"regexp"
	"sort"

	"internscout-engine/internal/domain"
)

// skillPatterns maps a canonical skill name to the terms that indicate it.
// Matching is keyword-scan over the description; absence is an empty set,
// never an error.
var skillPatterns = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`(?i)\bpython\b`),
	"java":       regexp.MustCompile(`(?i)\bjava\b`),
	"javascript": regexp.MustCompile(`(?i)\b(javascript|node\.?js)\b`),
	"typescript": regexp.MustCompile(`(?i)\btypescript\b`),
	"go":         regexp.MustCompile(`(?i)\bgolang\b`),
	"c++":        regexp.MustCompile(`(?i)c\+\+`),
	"c#":         regexp.MustCompile(`(?i)c#|\bdotnet\b|\b\.net\b`),
	"rust":       regexp.MustCompile(`(?i)\brust\b`),
	"swift":      regexp.MustCompile(`(?i)\bswift\b`),
	"kotlin":     regexp.MustCompile(`(?i)\bkotlin\b`),
	"sql":        regexp.MustCompile(`(?i)\b(sql|postgres|postgresql|mysql)\b`),
	"react":      regexp.MustCompile(`(?i)\breact(\.js)?\b`),
	"aws":        regexp.MustCompile(`(?i)\baws\b|\bamazon web services\b`),
	"gcp":        regexp.MustCompile(`(?i)\bgcp\b|\bgoogle cloud\b`),
	"docker":     regexp.MustCompile(`(?i)\bdocker\b`),
	"kubernetes": regexp.MustCompile(`(?i)\b(kubernetes|k8s)\b`),
	"git":        regexp.MustCompile(`(?i)\bgit\b`),
	"linux":      regexp.MustCompile(`(?i)\blinux\b`),
	"tensorflow": regexp.MustCompile(`(?i)\btensorflow\b`),
	"pytorch":    regexp.MustCompile(`(?i)\bpytorch\b`),
	"pandas":     regexp.MustCompile(`(?i)\bpandas\b`),
	"matlab":     regexp.MustCompile(`(?i)\bmatlab\b`),
	"excel":      regexp.MustCompile(`(?i)\bexcel\b`),
	"tableau":    regexp.MustCompile(`(?i)\btableau\b`),
	"figma":      regexp.MustCompile(`(?i)\bfigma\b`),
	"verilog":    regexp.MustCompile(`(?i)\b(verilog|vhdl)\b`),
}

var majorPatterns = map[domain.Major]*regexp.Regexp{
	domain.MajorComputerScience:       regexp.MustCompile(`(?i)\bcomputer science\b|\bcs\b`),
	domain.MajorDataScience:           regexp.MustCompile(`(?i)\bdata science\b|\bstatistics\b`),
	domain.MajorElectricalEngineering: regexp.MustCompile(`(?i)\belectrical engineering\b`),
	domain.MajorComputerEngineering:   regexp.MustCompile(`(?i)\bcomputer engineering\b`),
	domain.MajorMath:                  regexp.MustCompile(`(?i)\bmath(ematics)?\b`),
	domain.MajorBusiness:              regexp.MustCompile(`(?i)\bbusiness\b|\beconomics\b|\bfinance\b`),
	domain.MajorDesign:                regexp.MustCompile(`(?i)\bdesign\b|\bhci\b|\bhuman.computer interaction\b`),
}

// ExtractSkills scans text for known skills, returning a deduplicated,
// sorted, lowercase set.
func ExtractSkills(text string) []string {
	var out []string
	for name, re := range skillPatterns {
		if re.MatchString(text) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ExtractMajors scans text for relevant academic fields.
func ExtractMajors(text string) []domain.Major {
	var out []domain.Major
	for m, re := range majorPatterns {
		if re.MatchString(text) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
