package netutil

import (
	"net/url"
	"sort"
	"strings"
)

// UserAgent identifies outbound requests from the engine.
const UserAgent = "internscout/1.0 (+local)"

// ATS hosts and aggregator boards never identify the employer itself, so they
// are not usable as a company domain.
var boardDomains = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"monster.com",
	"simplyhired.com",
	"builtin.com",
	"handshake.com",
	"joinhandshake.com",
	"wellfound.com",

	"greenhouse.io",
	"boards.greenhouse.io",
	"lever.co",
	"myworkdayjobs.com",
	"workday.com",
	"smartrecruiters.com",
	"icims.com",
	"jobvite.com",
	"ashbyhq.com",
	"applytojob.com",
	"adzuna.com",
}

// CanonicalizeURL lowercases scheme/host, drops fragments and tracking
// params, and renders the query deterministically so equivalent links
// compare equal.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" || lk == "ref" || lk == "src" {
			q.Del(k)
		}
	}

	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// HostOf returns the lowercased host of raw without a www. prefix.
func HostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// CompanyDomainFromURL guesses the employer's domain from an application URL.
// Links hosted on an ATS or aggregator board yield "".
func CompanyDomainFromURL(raw string) string {
	host := HostOf(raw)
	if host == "" || IsBoardDomain(host) {
		return ""
	}
	return host
}

func IsBoardDomain(host string) bool {
	for _, b := range boardDomains {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

// IsJunkURL filters template links (unsubscribe, preferences, tracking
// pixels) that show up in job-alert emails.
func IsJunkURL(raw string) bool {
	lu := strings.ToLower(raw)
	junks := []string{
		"unsubscribe",
		"preferences",
		"manage-preferences",
		"email-preferences",
		"privacy",
		"terms",
		"view-in-browser",
		"viewaswebpage",
		"tracking",
		"pixel",
		"beacon",
		"/alerts",
		"/settings",
		"/help",
		"/legal",
	}
	for _, j := range junks {
		if strings.Contains(lu, j) {
			return true
		}
	}
	return false
}

// ScoreJobURL ranks how likely raw points at an actual posting page.
func ScoreJobURL(raw string) int {
	lu := strings.ToLower(raw)
	score := 0

	if strings.Contains(lu, "/jobs/view/") {
		score += 100
	}
	if strings.Contains(lu, "greenhouse.io") || strings.Contains(lu, "lever.co") ||
		strings.Contains(lu, "myworkdayjobs") || strings.Contains(lu, "ashbyhq.com") {
		score += 80
	}
	if strings.Contains(lu, "apply") {
		score += 40
	}
	if strings.Contains(lu, "/job") || strings.Contains(lu, "/jobs") || strings.Contains(lu, "/careers") {
		score += 20
	}
	if strings.Contains(lu, "/alerts") || strings.Contains(lu, "/settings") {
		score -= 100
	}
	return score
}
