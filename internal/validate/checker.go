// Package validate decides whether stored application links still lead to a
// live posting. Probing is deliberately conservative: network trouble means
// "maybe valid", never "dead", so flaky infrastructure can't deactivate real
// postings.
package validate

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/netutil"
)

const (
	maxHops      = 10
	maxRetries   = 2
	baseBackoff  = 500 * time.Millisecond
	bodyLimit    = 256 << 10
	probeTimeout = 20 * time.Second
)

// probe is the raw outcome of chasing one URL.
type probe struct {
	originalURL string
	finalURL    string
	chain       []string
	status      int
	body        string
	hops        int
	netErr      error
}

// Checker performs the HTTP probing for one validation run.
type Checker struct {
	hc  *http.Client
	log *zap.Logger
}

func NewChecker(log *zap.Logger) *Checker {
	return &Checker{
		hc: &http.Client{
			Timeout: probeTimeout,
			// Redirects are followed by hand so the chain gets recorded.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log,
	}
}

// Check probes url and classifies the outcome.
func (c *Checker) Check(ctx context.Context, url string) domain.ValidationRecord {
	p := c.probe(ctx, url)
	return classify(p)
}

// probe issues HEAD first and downgrades to GET when the server rejects HEAD
// or when a body is needed for classification. Transient network errors are
// retried with exponential backoff plus jitter.
func (c *Checker) probe(ctx context.Context, url string) probe {
	p := probe{originalURL: url, finalURL: url}

	resp, err := c.follow(ctx, http.MethodHead, url, &p)
	if err != nil {
		p.netErr = &domain.ValidationNetworkError{URL: url, Err: err}
		return p
	}
	if headRejected(resp.StatusCode) {
		drain(resp)
		p.chain = nil
		p.hops = 0
		p.finalURL = url
		resp, err = c.follow(ctx, http.MethodGet, url, &p)
		if err != nil {
			p.netErr = &domain.ValidationNetworkError{URL: url, Err: err}
			return p
		}
	}

	p.status = resp.StatusCode

	// 2xx via HEAD carries no body; fetch one for the phrase and landing
	// checks.
	if resp.Request != nil && resp.Request.Method == http.MethodHead &&
		resp.StatusCode >= 200 && resp.StatusCode < 300 {
		drain(resp)
		body, err := c.fetchBody(ctx, p.finalURL)
		if err != nil {
			// Liveness is already established; classification just loses
			// the body signal.
			c.log.Debug("body fetch failed", zap.String("url", p.finalURL), zap.Error(err))
			return p
		}
		p.body = body
		return p
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, bodyLimit))
	resp.Body.Close()
	p.body = strings.ToLower(string(b))
	return p
}

// follow walks redirects manually up to maxHops, recording each hop.
func (c *Checker) follow(ctx context.Context, method, url string, p *probe) (*http.Response, error) {
	current := url
	for hop := 0; hop <= maxHops; hop++ {
		resp, err := c.do(ctx, method, current)
		if err != nil {
			return nil, err
		}
		if !isRedirect(resp.StatusCode) {
			p.finalURL = current
			return resp, nil
		}
		loc := resp.Header.Get("Location")
		if loc == "" {
			// Caller still needs the body.
			p.finalURL = current
			return resp, nil
		}
		drain(resp)
		if u, err := resp.Request.URL.Parse(loc); err == nil {
			loc = u.String()
		}
		p.chain = append(p.chain, loc)
		p.hops++
		current = loc
	}
	p.finalURL = current
	return nil, errors.New("too many redirects")
}

// do retries transient network failures; HTTP responses of any status are
// returned as-is.
func (c *Checker) do(ctx context.Context, method, url string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff << (attempt - 1)
			backoff += time.Duration(rand.Int63n(int64(backoff) / 2))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", netutil.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*")

		resp, err := c.hc.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Checker) fetchBody(ctx context.Context, url string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, bodyLimit))
	if err != nil {
		return "", err
	}
	return strings.ToLower(string(b)), nil
}

func headRejected(status int) bool {
	switch status {
	case http.StatusMethodNotAllowed, http.StatusForbidden, http.StatusNotImplemented:
		return true
	}
	return false
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
}
