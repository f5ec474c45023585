package sources

import (
	"context"
	"net/http"
	"time"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Validator probes URL liveness in two layers: a cheap HEAD with a short
// timeout, then a fuller GET with a longer timeout and a browser-like
// User-Agent. A URL is valid if either probe gets a 2xx.
type Validator struct {
	client       *http.Client
	quickTimeout time.Duration
	fullTimeout  time.Duration
}

func NewValidator() *Validator {
	return &Validator{
		// Per-probe timeouts come from the request context.
		client:       &http.Client{},
		quickTimeout: 3 * time.Second,
		fullTimeout:  8 * time.Second,
	}
}

// Validate partitions the candidates into live and dead URLs, preserving
// input order within each partition.
func (v *Validator) Validate(ctx context.Context, candidates []Source) (valid, invalid []Source) {
	for _, s := range candidates {
		if v.alive(ctx, s.URL) {
			valid = append(valid, s)
		} else {
			invalid = append(invalid, s)
		}
	}
	return valid, invalid
}

func (v *Validator) alive(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}
	if v.probe(ctx, http.MethodHead, url, v.quickTimeout, false) {
		return true
	}
	return v.probe(ctx, http.MethodGet, url, v.fullTimeout, true)
}

func (v *Validator) probe(ctx context.Context, method, url string, timeout time.Duration, browserLike bool) bool {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, method, url, nil)
	if err != nil {
		return false
	}
	if browserLike {
		req.Header.Set("User-Agent", browserUserAgent)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
