// Package normalize converts provider-native postings into the canonical
// schema. Everything here is pure and synchronous; only missing mandatory
// fields (title, company, url) reject a record.
package normalize

import (
	"strings"
	"time"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/netutil"
)

// Normalize canonicalizes one raw posting. Partial data degrades to
// unknown/empty values rather than failing: a posting with no parseable pay
// or eligibility is still worth storing.
func Normalize(raw domain.RawPosting) (domain.NormalizedPosting, error) {
	title := CleanText(raw.Title)
	company := CleanText(raw.Company)
	appURL := strings.TrimSpace(raw.URL)

	switch {
	case title == "":
		return domain.NormalizedPosting{}, &domain.NormalizationError{Source: raw.Source, Field: "title"}
	case company == "":
		return domain.NormalizedPosting{}, &domain.NormalizationError{Source: raw.Source, Field: "company"}
	case appURL == "":
		return domain.NormalizedPosting{}, &domain.NormalizationError{Source: raw.Source, Field: "url"}
	}

	appURL = netutil.CanonicalizeURL(appURL)
	location := NormalizeLocation(raw.Location)
	description := CleanText(raw.Description)
	blob := title + " " + description

	postedAt := time.Now().UTC()
	if raw.PostedAt != nil && !raw.PostedAt.IsZero() {
		postedAt = raw.PostedAt.UTC()
	}

	pay := ParsePay(blob)

	p := domain.NormalizedPosting{
		Title: title,
		Company: domain.Company{
			Name:   company,
			Domain: netutil.CompanyDomainFromURL(appURL),
		},
		ExactRole:        title,
		NormalizedRole:   ClassifyRole(title, description),
		RelevantMajors:   ExtractMajors(blob),
		Skills:           ExtractSkills(description),
		EligibilityYears: ParseEligibility(blob),
		WorkType:         pay.WorkType,

		PayRateMin:  pay.Min,
		PayRateMax:  pay.Max,
		PayCurrency: pay.Currency,
		PayType:     pay.Type,

		Location:          location,
		IsRemote:          DetectRemote(location, title, description),
		IsProgramSpecific: DetectProgramSpecific(title, description),
		InternshipCycle:   DetectCycle(title, description),

		Description:         description,
		ApplicationURL:      appURL,
		PostedAt:            postedAt,
		ApplicationDeadline: ParseDeadline(blob),

		ContentHash: ContentHash(company, title, location),
		Source:      raw.Source,
	}
	return p, nil
}
