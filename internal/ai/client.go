package ai

import "context"

var defaultFallbacks = []string{"gemini-2.5-flash-lite", "gemini-2.0-flash"}

// ModelOrder builds the attempt order: primary first, then the built-in
// fallbacks, then configured extras, deduplicated preserving first occurrence.
func ModelOrder(primary string, extra []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(m string) {
		if m == "" {
			return
		}
		if _, ok := seen[m]; ok {
			return
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	add(primary)
	for _, m := range defaultFallbacks {
		add(m)
	}
	for _, m := range extra {
		add(m)
	}
	return out
}

// Client tries models strictly in order, advancing only on transient errors.
type Client struct {
	gen    Generator
	models []string
}

func NewClient(gen Generator, primary string, extra []string) *Client {
	return &Client{gen: gen, models: ModelOrder(primary, extra)}
}

// Generate returns the first successful result. A non-transient error is
// fatal and propagates immediately; if every model fails transiently, the
// last error is returned. Attempts always lists models tried in order,
// ending with the one that succeeded (if any).
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	var attempts []string
	var lastErr error
	for i, model := range c.models {
		attempts = append(attempts, model)
		res, err := c.gen.Generate(ctx, model, req)
		if err == nil {
			res.Model = model
			res.Attempts = attempts
			return res, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
		if i+1 < len(c.models) && req.OnFallback != nil {
			req.OnFallback(c.models[i+1])
		}
	}
	return nil, lastErr
}
