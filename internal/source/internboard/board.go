// Package internboard fetches postings from an internship-board JSON feed.
// The feed exposes a paged global listing plus per-company listings; company
// queries fan out over a small worker pool behind a shared per-host limiter.
package internboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/netutil"
	"internscout-engine/internal/source"
)

const (
	pageSize    = 100
	maxPages    = 10
	httpTimeout = 25 * time.Second
)

type Adapter struct {
	baseURL string
	hc      *http.Client
	limiter *netutil.HostLimiter
	log     *zap.Logger
}

func New(baseURL string, limiter *netutil.HostLimiter, log *zap.Logger) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: httpTimeout},
		limiter: limiter,
		log:     log,
	}
}

func (a *Adapter) Name() string { return "internboard" }

type feedResponse struct {
	Jobs  []json.RawMessage `json:"jobs"`
	Total int               `json:"total"`
}

type feedJob struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Location    string `json:"location"`
	DatePosted  string `json:"date_posted"`
}

// Fetch pulls the global feed, or fans out one paged query per requested
// company. A company that fails is logged and skipped; the pass keeps going.
func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]domain.RawPosting, error) {
	if a.baseURL == "" {
		a.log.Warn("internboard base url not set, skipping source")
		return nil, nil
	}
	if len(q.Companies) == 0 {
		out, err := a.fetchQuery(ctx, "", q.MaxResults)
		if err != nil {
			return out, &domain.SourceError{Provider: a.Name(), Err: err}
		}
		return out, nil
	}

	const workers = 8

	jobsCh := make(chan []domain.RawPosting, len(q.Companies))
	workCh := make(chan string)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for co := range workCh {
				cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
				batch, err := a.fetchQuery(cctx, co, q.MaxResults)
				cancel()
				if err != nil {
					a.log.Warn("internboard company fetch failed",
						zap.String("company", co), zap.Error(err))
					continue
				}
				if len(batch) > 0 {
					jobsCh <- batch
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, co := range q.Companies {
			select {
			case <-ctx.Done():
				return
			case workCh <- co:
			}
		}
	}()

	wg.Wait()
	close(jobsCh)

	var out []domain.RawPosting
	for batch := range jobsCh {
		out = append(out, batch...)
	}
	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

func (a *Adapter) fetchQuery(ctx context.Context, company string, max int) ([]domain.RawPosting, error) {
	if max <= 0 {
		max = pageSize * maxPages
	}

	var out []domain.RawPosting
	for page := 1; page <= maxPages && len(out) < max; page++ {
		params := url.Values{}
		params.Set("page", fmt.Sprint(page))
		params.Set("per_page", fmt.Sprint(pageSize))
		if company != "" {
			params.Set("company", company)
		}
		u := a.baseURL + "/jobs?" + params.Encode()

		if a.limiter != nil {
			if err := a.limiter.WaitURL(ctx, u); err != nil {
				return out, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return out, err
		}
		req.Header.Set("User-Agent", netutil.UserAgent)
		req.Header.Set("Accept", "application/json")

		res, err := a.hc.Do(req)
		if err != nil {
			return out, fmt.Errorf("internboard get: %w", err)
		}
		body, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
		res.Body.Close()
		if err != nil {
			return out, fmt.Errorf("internboard read: %w", err)
		}
		if res.StatusCode >= 400 {
			return out, fmt.Errorf("internboard status %d", res.StatusCode)
		}

		var fr feedResponse
		if err := json.Unmarshal(body, &fr); err != nil {
			return out, fmt.Errorf("internboard decode: %w", err)
		}
		for _, raw := range fr.Jobs {
			var j feedJob
			if err := json.Unmarshal(raw, &j); err != nil {
				continue
			}
			p := domain.RawPosting{
				Source:      a.Name(),
				Title:       j.Title,
				Company:     j.CompanyName,
				URL:         j.URL,
				Description: j.Description,
				Location:    j.Location,
				Payload:     raw,
			}
			if t, err := time.Parse(time.RFC3339, j.DatePosted); err == nil {
				p.PostedAt = &t
			}
			out = append(out, p)
		}
		if len(fr.Jobs) < pageSize {
			break
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}
