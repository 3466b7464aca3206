// Package alerts turns job-alert emails sitting in an IMAP mailbox into raw
// postings. Each unseen alert is fetched with BODY.PEEK, its links harvested,
// and the message marked seen only after the whole pass parsed cleanly.
package alerts

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-imap/v2"
	"go.uber.org/zap"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/netutil"
	"internscout-engine/internal/source"
)

const defaultMax = 50

var (
	// "Software Engineer Intern at Google" and "Google is hiring: SWE Intern"
	subjectAtRe     = regexp.MustCompile(`(?i)^(.+?)\s+at\s+(.+?)(?:\s+and\s+\d+\s+more.*)?$`)
	subjectHiringRe = regexp.MustCompile(`(?i)^(.+?)\s+is\s+hiring:?\s+(.+)$`)
)

// Adapter reads alert emails from one IMAP account.
type Adapter struct {
	addr     string
	username string
	password string
	mailbox  string
	log      *zap.Logger

	// MarkSeen controls whether processed alerts get flagged \Seen. The
	// orchestrator turns this off for dry runs.
	MarkSeen bool
}

func New(addr, username, password string, log *zap.Logger) *Adapter {
	return &Adapter{
		addr:     addr,
		username: username,
		password: password,
		mailbox:  "INBOX",
		log:      log,
		MarkSeen: true,
	}
}

func (a *Adapter) Name() string { return "alerts" }

// Fetch pulls unseen alert messages and extracts one posting per plausible
// job link. Missing credentials degrade to an empty fetch.
func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]domain.RawPosting, error) {
	if a.addr == "" || a.username == "" || a.password == "" {
		a.log.Warn("alerts imap credentials not set, skipping source")
		return nil, nil
	}

	max := q.MaxResults
	if max <= 0 {
		max = defaultMax
	}

	c, err := dialAndLogin(ctx, a.addr, a.username, a.password)
	if err != nil {
		return nil, &domain.SourceError{Provider: a.Name(), Err: err}
	}
	defer logoutAndClose(c)

	msgs, err := fetchUnseen(ctx, c, a.mailbox, max)
	if err != nil {
		return nil, &domain.SourceError{Provider: a.Name(), Err: err}
	}

	var (
		out  []domain.RawPosting
		seen []imap.UID
	)
	for _, m := range msgs {
		postings := a.parseMessage(m)
		if len(postings) == 0 {
			continue
		}
		out = append(out, postings...)
		seen = append(seen, m.UID)
	}

	if a.MarkSeen && len(seen) > 0 {
		if err := markSeen(c, seen); err != nil {
			a.log.Warn("alerts mark seen failed", zap.Error(err))
		}
	}
	return out, nil
}

// parseMessage harvests job links from one alert. HTML bodies yield anchors
// via goquery; plaintext falls back to naked URLs.
func (a *Adapter) parseMessage(m message) []domain.RawPosting {
	body, isHTML := extractBody(m.Raw)
	subjTitle, subjCompany := parseSubject(m.Subject)

	type link struct {
		url  string
		text string
	}
	var links []link

	if isHTML {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			a.log.Warn("alerts html parse failed", zap.Error(err))
			return nil
		}
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			links = append(links, link{
				url:  strings.TrimSpace(href),
				text: strings.Join(strings.Fields(sel.Text()), " "),
			})
		})
	} else {
		for _, u := range nakedURLRe.FindAllString(body, -1) {
			links = append(links, link{url: strings.TrimRight(u, ".,);:]\"'")})
		}
	}

	var out []domain.RawPosting
	dedup := make(map[string]bool)
	for _, l := range links {
		if l.url == "" || !strings.HasPrefix(l.url, "http") {
			continue
		}
		if netutil.IsJunkURL(l.url) || netutil.ScoreJobURL(l.url) <= 0 {
			continue
		}
		cu := netutil.CanonicalizeURL(l.url)
		if dedup[cu] {
			continue
		}
		dedup[cu] = true

		title := l.text
		if len(title) < 8 {
			title = subjTitle
		}
		if title == "" || subjCompany == "" {
			continue
		}
		postedAt := m.Date
		p := domain.RawPosting{
			Source:   a.Name(),
			Title:    title,
			Company:  subjCompany,
			URL:      cu,
			PostedAt: &postedAt,
		}
		out = append(out, p)
	}
	return out
}

var nakedURLRe = regexp.MustCompile(`https?://[^\s<>"']+`)

// parseSubject splits alert subjects like "SWE Intern at Google" or
// "Google is hiring: SWE Intern" into (title, company).
func parseSubject(subject string) (title, company string) {
	subject = strings.TrimSpace(subject)
	if m := subjectHiringRe.FindStringSubmatch(subject); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
	}
	if m := subjectAtRe.FindStringSubmatch(subject); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return subject, ""
}
