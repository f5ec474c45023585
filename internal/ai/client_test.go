package ai

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type scriptedGenerator struct {
	// errs maps model name to the error it should return; models absent
	// from the map succeed.
	errs  map[string]error
	calls []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, model string, req Request) (*Result, error) {
	_ = ctx
	_ = req
	g.calls = append(g.calls, model)
	if err, ok := g.errs[model]; ok && err != nil {
		return nil, err
	}
	return &Result{Text: "ok from " + model}, nil
}

func TestModelOrder_DedupesPreservingFirst(t *testing.T) {
	got := ModelOrder("gemini-2.5-flash-lite", []string{"extra-model", "gemini-2.0-flash"})
	want := []string{"gemini-2.5-flash-lite", "gemini-2.0-flash", "extra-model"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestGenerate_FallsBackAcrossTransientErrors(t *testing.T) {
	gen := &scriptedGenerator{errs: map[string]error{
		"m1": errors.New("model is overloaded"),
		"m2": errors.New("503 service unavailable"),
	}}
	c := &Client{gen: gen, models: []string{"m1", "m2", "m3"}}

	var notified []string
	res, err := c.Generate(context.Background(), Request{
		Mode:       ModeResult,
		Message:    "hi",
		OnFallback: func(m string) { notified = append(notified, m) },
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Model != "m3" {
		t.Fatalf("model used = %q, want m3", res.Model)
	}
	if want := []string{"m1", "m2", "m3"}; !reflect.DeepEqual(res.Attempts, want) {
		t.Fatalf("attempts = %v, want %v", res.Attempts, want)
	}
	if want := []string{"m2", "m3"}; !reflect.DeepEqual(notified, want) {
		t.Fatalf("fallback notifications = %v, want %v", notified, want)
	}
}

func TestGenerate_FatalErrorStopsImmediately(t *testing.T) {
	gen := &scriptedGenerator{errs: map[string]error{
		"m1": errors.New("invalid api key"),
	}}
	c := &Client{gen: gen, models: []string{"m1", "m2"}}

	_, err := c.Generate(context.Background(), Request{Message: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected 1 call, got %v", gen.calls)
	}
}

func TestGenerate_AllExhaustedReturnsLastError(t *testing.T) {
	gen := &scriptedGenerator{errs: map[string]error{
		"m1": errors.New("connection reset by peer"),
		"m2": errors.New("request timed out"),
	}}
	c := &Client{gen: gen, models: []string{"m1", "m2"}}

	_, err := c.Generate(context.Background(), Request{Message: "hi"})
	if err == nil || err.Error() != "request timed out" {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		err  string
		want ErrorCategory
	}{
		{"model is overloaded", ErrOverloaded},
		{"429 resource exhausted", ErrRateLimited},
		{"dial tcp: lookup host: no such host", ErrNetwork},
		{"API key not valid", ErrAuth},
		{"something odd", ErrUnknown},
	}
	for _, c := range cases {
		if got := Categorize(errors.New(c.err)); got != c.want {
			t.Errorf("Categorize(%q) = %q, want %q", c.err, got, c.want)
		}
	}
}
