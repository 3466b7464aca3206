// Package adzuna fetches internship postings from the Adzuna public API.
package adzuna

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/netutil"
	"internscout-engine/internal/source"
)

const (
	baseURL     = "https://api.adzuna.com/v1/api/jobs"
	pageSize    = 50
	maxPages    = 4
	httpTimeout = 15 * time.Second
)

// Adapter queries the Adzuna search API, paging until the provider runs dry.
// Missing credentials degrade to an empty fetch rather than an error so one
// unconfigured provider never blocks the rest of a run.
type Adapter struct {
	appID   string
	appKey  string
	country string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func New(appID, appKey, country string, log *zap.Logger) *Adapter {
	if country == "" {
		country = "us"
	}
	return &Adapter{
		appID:   appID,
		appKey:  appKey,
		country: country,
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
		log:     log,
	}
}

func (a *Adapter) Name() string { return "adzuna" }

type searchResponse struct {
	Results []json.RawMessage `json:"results"`
}

type result struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	RedirectURL string `json:"redirect_url"`
	Created     string `json:"created"`
}

// Fetch pages through Adzuna's internship search. Partial pages already
// decoded are returned alongside the error when a later page fails.
func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]domain.RawPosting, error) {
	if a.appID == "" || a.appKey == "" {
		a.log.Warn("adzuna credentials not set, skipping source")
		return nil, nil
	}

	max := q.MaxResults
	if max <= 0 {
		max = pageSize * maxPages
	}

	var out []domain.RawPosting
	for page := 1; page <= maxPages && len(out) < max; page++ {
		batch, err := a.fetchPage(ctx, q, page)
		if err != nil {
			return out, &domain.SourceError{Provider: a.Name(), Err: fmt.Errorf("page %d: %w", page, err)}
		}
		if len(batch) == 0 {
			break
		}
		out = append(out, batch...)
		if len(batch) < pageSize {
			break
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (a *Adapter) fetchPage(ctx context.Context, q source.Query, page int) ([]domain.RawPosting, error) {
	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("results_per_page", strconv.Itoa(pageSize))
	params.Set("what", "internship")
	params.Set("sort_by", "date")
	if len(q.Companies) > 0 {
		params.Set("company", strings.Join(q.Companies, " "))
	}

	endpoint := fmt.Sprintf("%s/%s/search/%d?%s", a.baseURL, a.country, page, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", netutil.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]domain.RawPosting, 0, len(sr.Results))
	for _, raw := range sr.Results {
		var r result
		if err := json.Unmarshal(raw, &r); err != nil {
			a.log.Warn("adzuna item decode failed", zap.Error(err))
			continue
		}
		p := domain.RawPosting{
			Source:      a.Name(),
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			URL:         r.RedirectURL,
			Description: r.Description,
			Location:    r.Location.DisplayName,
			Payload:     raw,
		}
		if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
			p.PostedAt = &t
		}
		out = append(out, p)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
