package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"internscout-engine/internal/domain"
)

// Everything in this file is best-effort extraction from free text: missing
// data yields unknown/empty values, never an error.

var (
	payRangeRe  = regexp.MustCompile(`(?i)\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k)?\s*(?:-|–|to)\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k)?`)
	paySingleRe = regexp.MustCompile(`(?i)\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k)?\s*(?:/|\bper\s+)(hour|hr|week|wk|month|mo|year|yr|annum)`)

	hourlyRe  = regexp.MustCompile(`(?i)/\s*(hour|hr)\b|\bper\s+hour\b|\bhourly\b|\ban\s+hour\b`)
	weeklyRe  = regexp.MustCompile(`(?i)/\s*(week|wk)\b|\bper\s+week\b|\bweekly\b`)
	monthlyRe = regexp.MustCompile(`(?i)/\s*(month|mo)\b|\bper\s+month\b|\bmonthly\b`)
	yearlyRe  = regexp.MustCompile(`(?i)/\s*(year|yr|annum)\b|\bper\s+year\b|\bannually\b|\byearly\b`)

	cycleRe    = regexp.MustCompile(`(?i)\b(summer|fall|autumn|winter|spring)\s*(20\d{2})\b`)
	deadlineRe = regexp.MustCompile(`(?i)(?:apply\s+by|deadline\s*:?\s*|applications?\s+(?:close|due)\s*(?:on|by)?)\s*([A-Za-z]+\s+[0-9]{1,2},?\s+20[0-9]{2}|20[0-9]{2}-[0-9]{2}-[0-9]{2})`)

	eligibilityPatterns = []struct {
		year domain.EligibilityYear
		re   *regexp.Regexp
	}{
		{domain.YearFreshman, regexp.MustCompile(`(?i)\b(freshm(a|e)n|first.year)\b`)},
		{domain.YearSophomore, regexp.MustCompile(`(?i)\b(sophomores?|second.year)\b`)},
		{domain.YearJunior, regexp.MustCompile(`(?i)\b(juniors?|third.year|penultimate)\b`)},
		{domain.YearSenior, regexp.MustCompile(`(?i)\b(seniors?|final.year|graduating)\b`)},
		{domain.YearMasters, regexp.MustCompile(`(?i)\b(master'?s|\bms\s+students?|graduate\s+students?)\b`)},
		{domain.YearPhD, regexp.MustCompile(`(?i)\b(phd|ph\.d|doctoral)\b`)},
	}

	programRe = regexp.MustCompile(`(?i)\b(diversity|women\s+in|underrepresented|first.generation|rotational\s+program|fellowship|scholars?\s+program|veterans?|lgbtq|hbcu|early\s+insight|explore\s+program)\b`)

	unpaidRe  = regexp.MustCompile(`(?i)\bunpaid\b`)
	stipendRe = regexp.MustCompile(`(?i)\bstipend\b`)
)

// Pay is the extracted compensation shape.
type Pay struct {
	Min      float64
	Max      float64
	Currency string
	Type     string // hourly | weekly | monthly | yearly | stipend
	WorkType domain.WorkType
}

// ParsePay extracts a pay range or single rate plus its period from text.
func ParsePay(text string) Pay {
	p := Pay{WorkType: domain.WorkTypeUnknown}

	switch {
	case unpaidRe.MatchString(text):
		p.WorkType = domain.WorkTypeUnpaid
		return p
	case stipendRe.MatchString(text):
		p.WorkType = domain.WorkTypeStipend
		p.Type = "stipend"
	}

	if m := payRangeRe.FindStringSubmatch(text); m != nil {
		p.Min = parseAmount(m[1], m[2] != "")
		p.Max = parseAmount(m[3], m[4] != "")
		p.Currency = "USD"
	} else if m := paySingleRe.FindStringSubmatch(text); m != nil {
		v := parseAmount(m[1], m[2] != "")
		p.Min, p.Max = v, v
		p.Currency = "USD"
	}

	if p.Min > 0 && p.WorkType == domain.WorkTypeUnknown {
		p.WorkType = domain.WorkTypePaid
	}
	if p.Type == "" {
		switch {
		case hourlyRe.MatchString(text):
			p.Type = "hourly"
		case weeklyRe.MatchString(text):
			p.Type = "weekly"
		case monthlyRe.MatchString(text):
			p.Type = "monthly"
		case yearlyRe.MatchString(text):
			p.Type = "yearly"
		case p.Min > 0 && p.Min < 500:
			// a bare "$45-$55" range at that magnitude is an hourly rate
			p.Type = "hourly"
		}
	}
	return p
}

func parseAmount(s string, thousands bool) float64 {
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if thousands {
		v *= 1000
	}
	return v
}

// ParseEligibility returns the class years the posting names, sorted.
func ParseEligibility(text string) []domain.EligibilityYear {
	var out []domain.EligibilityYear
	for _, p := range eligibilityPatterns {
		if p.re.MatchString(text) {
			out = append(out, p.year)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DetectRemote treats any mention of "remote" in location/title/description
// as remote-friendly.
func DetectRemote(location, title, description string) bool {
	blob := strings.ToLower(strings.Join([]string{location, title, description}, " "))
	return strings.Contains(blob, "remote")
}

// DetectProgramSpecific flags diversity/rotational/fellowship-style programs.
func DetectProgramSpecific(title, description string) bool {
	return programRe.MatchString(title) || programRe.MatchString(description)
}

// DetectCycle returns "summer_2027"-style cycle keys from explicit season +
// year mentions; empty when the posting doesn't say.
func DetectCycle(title, description string) string {
	m := cycleRe.FindStringSubmatch(title)
	if m == nil {
		m = cycleRe.FindStringSubmatch(description)
	}
	if m == nil {
		return ""
	}
	season := strings.ToLower(m[1])
	if season == "autumn" {
		season = "fall"
	}
	return fmt.Sprintf("%s_%s", season, m[2])
}

// ParseDeadline extracts an explicit application deadline when one is stated.
func ParseDeadline(text string) *time.Time {
	m := deadlineRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	for _, layout := range []string{"January 2 2006", "Jan 2 2006", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
