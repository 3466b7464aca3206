package validate

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"internscout-engine/internal/domain"
)

// closedPhrases are body fragments that mark a posting closed even when the
// page still answers 200.
var closedPhrases = []string{
	"no longer accepting applications",
	"this position has been filled",
	"this job is no longer available",
	"job posting has closed",
	"this posting has expired",
	"position is no longer open",
	"applications are now closed",
	"this role has been filled",
}

// landingSegments are final path segments of a generic careers page. Ending
// up on one of these after a redirect means the specific posting is gone.
var landingSegments = map[string]bool{
	"":              true,
	"careers":       true,
	"career":        true,
	"jobs":          true,
	"job":           true,
	"openings":      true,
	"positions":     true,
	"opportunities": true,
	"join":          true,
	"join-us":       true,
	"search":        true,
}

// classify turns a probe into a validation record. Rules apply in order; the
// first that matches wins.
func classify(p probe) domain.ValidationRecord {
	rec := domain.ValidationRecord{
		HTTPCode:      p.status,
		FinalURL:      p.finalURL,
		RedirectChain: p.chain,
		CheckedAt:     time.Now().UTC(),
	}

	switch {
	case p.netErr != nil:
		rec.Status = domain.StatusMaybeValid
		rec.Confidence = 0.3
		rec.Reason = p.netErr.Error()

	case p.status == 404 || p.status == 410:
		rec.Status = domain.StatusDead
		rec.Confidence = 0.95
		rec.Reason = fmt.Sprintf("HTTP %d", p.status)

	case containsClosedPhrase(p.body):
		rec.Status = domain.StatusDead
		rec.Confidence = 0.9
		rec.Reason = "page states the posting is closed"

	case p.status >= 500:
		rec.Status = domain.StatusMaybeValid
		rec.Confidence = 0.4
		rec.Reason = fmt.Sprintf("server error HTTP %d", p.status)

	case p.status >= 200 && p.status < 300 && isGenericLanding(p.finalURL, p.originalURL):
		rec.Status = domain.StatusExpired
		rec.Confidence = 0.7
		rec.Reason = "redirected to generic careers page"

	case p.status >= 200 && p.status < 300:
		rec.Status = domain.StatusOK
		rec.Confidence = okConfidence(p.hops)
		rec.Reason = "posting reachable"

	default:
		rec.Status = domain.StatusMaybeValid
		rec.Confidence = 0.4
		rec.Reason = fmt.Sprintf("unexpected HTTP %d", p.status)
	}
	return rec
}

// okConfidence starts high and loses a step per redirect hop; long chains
// mean the original link barely resembles where it landed.
func okConfidence(hops int) float64 {
	conf := 0.95 - 0.1*float64(hops)
	if conf < 0.5 {
		conf = 0.5
	}
	return conf
}

func containsClosedPhrase(body string) bool {
	if body == "" {
		return false
	}
	for _, phrase := range closedPhrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}

// isGenericLanding reports whether finalURL is a careers landing page while
// the original URL pointed at something more specific.
func isGenericLanding(finalURL, originalURL string) bool {
	if finalURL == originalURL {
		return false
	}
	u, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	path := strings.Trim(u.Path, "/")
	segs := strings.Split(path, "/")
	last := strings.ToLower(segs[len(segs)-1])
	if !landingSegments[last] {
		return false
	}
	// A landing page has a shallow path and no posting identifier.
	return len(segs) <= 2 && u.RawQuery == ""
}
