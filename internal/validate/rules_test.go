package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"internscout-engine/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		p          probe
		wantStatus domain.ValidationStatus
		wantReason string
	}{
		{
			name:       "network error is inconclusive",
			p: probe{
				originalURL: "https://a.com/jobs/1",
				finalURL:    "https://a.com/jobs/1",
				netErr: &domain.ValidationNetworkError{
					URL: "https://a.com/jobs/1",
					Err: errors.New("dial tcp: connection refused"),
				},
			},
			wantStatus: domain.StatusMaybeValid,
			wantReason: "network error",
		},
		{
			name:       "404 is dead",
			p:          probe{originalURL: "https://a.com/jobs/1", finalURL: "https://a.com/jobs/1", status: 404},
			wantStatus: domain.StatusDead,
		},
		{
			name:       "410 is dead",
			p:          probe{originalURL: "https://a.com/jobs/1", finalURL: "https://a.com/jobs/1", status: 410},
			wantStatus: domain.StatusDead,
		},
		{
			name:       "closed phrase beats 200",
			p:          probe{originalURL: "https://a.com/jobs/1", finalURL: "https://a.com/jobs/1", status: 200, body: "sorry, this job is no longer available"},
			wantStatus: domain.StatusDead,
		},
		{
			name:       "server error is inconclusive",
			p:          probe{originalURL: "https://a.com/jobs/1", finalURL: "https://a.com/jobs/1", status: 503},
			wantStatus: domain.StatusMaybeValid,
		},
		{
			name:       "redirect to generic careers page is expired",
			p:          probe{originalURL: "https://a.com/jobs/12345", finalURL: "https://a.com/careers", status: 200, hops: 1, chain: []string{"https://a.com/careers"}},
			wantStatus: domain.StatusExpired,
		},
		{
			name:       "job-specific 200 is ok",
			p:          probe{originalURL: "https://a.com/jobs/12345", finalURL: "https://a.com/jobs/12345", status: 200, body: "apply now for this role"},
			wantStatus: domain.StatusOK,
		},
		{
			name:       "2xx after redirect to another job page is ok",
			p:          probe{originalURL: "https://a.com/jobs/1", finalURL: "https://b.com/postings/1", status: 200, hops: 2},
			wantStatus: domain.StatusOK,
		},
		{
			name:       "403 is inconclusive",
			p:          probe{originalURL: "https://a.com/jobs/1", finalURL: "https://a.com/jobs/1", status: 403},
			wantStatus: domain.StatusMaybeValid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := classify(tc.p)
			assert.Equal(t, tc.wantStatus, rec.Status)
			if tc.wantReason != "" {
				assert.Contains(t, rec.Reason, tc.wantReason)
			}
			assert.False(t, rec.CheckedAt.IsZero())
		})
	}
}

func TestClassifyRuleOrder(t *testing.T) {
	// A 404 whose error page happens to contain a closed phrase must still
	// classify on the status code.
	rec := classify(probe{
		originalURL: "https://a.com/jobs/1",
		finalURL:    "https://a.com/jobs/1",
		status:      404,
		body:        "this job is no longer available",
	})
	assert.Equal(t, domain.StatusDead, rec.Status)
	assert.Contains(t, rec.Reason, "404")
}

func TestOkConfidenceScalesWithHops(t *testing.T) {
	direct := classify(probe{originalURL: "https://a.com/jobs/1", finalURL: "https://a.com/jobs/1", status: 200})
	hopped := classify(probe{originalURL: "https://a.com/jobs/1", finalURL: "https://b.com/jobs/1", status: 200, hops: 3})

	assert.Equal(t, domain.StatusOK, direct.Status)
	assert.Equal(t, domain.StatusOK, hopped.Status)
	assert.Greater(t, direct.Confidence, hopped.Confidence)
	assert.GreaterOrEqual(t, hopped.Confidence, 0.5)
}

func TestIsGenericLanding(t *testing.T) {
	cases := []struct {
		final, original string
		want            bool
	}{
		{"https://a.com/careers", "https://a.com/jobs/123", true},
		{"https://a.com/", "https://a.com/jobs/123", true},
		{"https://a.com/en/careers", "https://a.com/jobs/123", true},
		{"https://a.com/jobs/123", "https://a.com/jobs/123", false},
		{"https://a.com/careers/engineering/12345", "https://a.com/jobs/123", false},
		{"https://a.com/jobs?id=9", "https://a.com/jobs/123", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isGenericLanding(tc.final, tc.original), "final=%s", tc.final)
	}
}

func TestActiveKnown(t *testing.T) {
	cases := []struct {
		status domain.ValidationStatus
		active bool
		known  bool
	}{
		{domain.StatusOK, true, true},
		{domain.StatusDead, false, true},
		{domain.StatusExpired, false, true},
		{domain.StatusMaybeValid, false, false},
	}
	for _, tc := range cases {
		rec := domain.ValidationRecord{Status: tc.status}
		active, known := rec.ActiveKnown()
		assert.Equal(t, tc.known, known, "status=%s", tc.status)
		if known {
			assert.Equal(t, tc.active, active, "status=%s", tc.status)
		}
	}
}
