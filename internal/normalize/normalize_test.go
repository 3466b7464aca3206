package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internscout-engine/internal/domain"
)

func TestNormalizeHappyPath(t *testing.T) {
	posted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	raw := domain.RawPosting{
		Source:  "adzuna",
		Title:   "  Software Engineer Intern - Summer 2027 ",
		Company: "Acme Corp",
		URL:     "https://jobs.acme.com/postings/1234?utm_source=alert",
		Description: "Work on backend services in Python and Go (golang). " +
			"$45-$55 per hour. Open to juniors and seniors. Remote friendly.",
		Location: "Austin, TX",
		PostedAt: &posted,
	}

	p, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "Software Engineer Intern - Summer 2027", p.Title)
	assert.Equal(t, "Acme Corp", p.Company.Name)
	assert.Equal(t, "jobs.acme.com", p.Company.Domain)
	assert.Equal(t, domain.RoleSoftware, p.NormalizedRole)
	assert.Equal(t, "https://jobs.acme.com/postings/1234", p.ApplicationURL, "tracking params dropped")
	assert.Equal(t, domain.WorkTypePaid, p.WorkType)
	assert.Equal(t, 45.0, p.PayRateMin)
	assert.Equal(t, 55.0, p.PayRateMax)
	assert.Equal(t, "hourly", p.PayType)
	assert.Equal(t, []domain.EligibilityYear{domain.YearJunior, domain.YearSenior}, p.EligibilityYears)
	assert.True(t, p.IsRemote)
	assert.Equal(t, "summer_2027", p.InternshipCycle)
	assert.Equal(t, posted, p.PostedAt)
	assert.Contains(t, p.Skills, "python")
	assert.Contains(t, p.Skills, "go")
	assert.NotEmpty(t, p.ContentHash)
	assert.Equal(t, "adzuna", p.Source)
}

func TestNormalizeMandatoryFields(t *testing.T) {
	base := domain.RawPosting{
		Source:  "internboard",
		Title:   "SWE Intern",
		Company: "Acme",
		URL:     "https://example.com/jobs/1",
	}

	cases := []struct {
		name   string
		mutate func(*domain.RawPosting)
		field  string
	}{
		{"missing title", func(r *domain.RawPosting) { r.Title = "  " }, "title"},
		{"missing company", func(r *domain.RawPosting) { r.Company = "" }, "company"},
		{"missing url", func(r *domain.RawPosting) { r.URL = "" }, "url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := base
			tc.mutate(&raw)
			_, err := Normalize(raw)
			require.Error(t, err)

			var nerr *domain.NormalizationError
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, tc.field, nerr.Field)
			assert.Equal(t, "internboard", nerr.Source)
		})
	}
}

func TestNormalizeDefaultsPostedAt(t *testing.T) {
	raw := domain.RawPosting{
		Source:  "alerts",
		Title:   "SWE Intern",
		Company: "Acme",
		URL:     "https://example.com/jobs/1",
	}
	p, err := Normalize(raw)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), p.PostedAt, time.Minute)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := domain.RawPosting{
		Source:      "adzuna",
		Title:       "Data Science Intern",
		Company:     "Initech LLC",
		URL:         "https://jobs.initech.com/ds-intern",
		Description: "SQL and Python required.",
		Location:    "Remote",
	}
	a, err := Normalize(raw)
	require.NoError(t, err)
	b, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.Equal(t, a.Skills, b.Skills)
	assert.Equal(t, a.NormalizedRole, b.NormalizedRole)
}
