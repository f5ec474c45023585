package sources

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rankscout/rankscout/internal/ai"
)

type stubGenerator struct {
	batches [][]Source
	errs    []error
	calls   int
}

func (g *stubGenerator) Generate(ctx context.Context, category, resultText string, n int) ([]Source, error) {
	_ = ctx
	_ = category
	_ = resultText
	_ = n
	i := g.calls
	g.calls++
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if i < len(g.batches) {
		return g.batches[i], err
	}
	return nil, err
}

// stubValidator marks URLs containing "live" as valid.
type stubValidator struct{ passes int }

func (v *stubValidator) Validate(ctx context.Context, candidates []Source) (valid, invalid []Source) {
	_ = ctx
	v.passes++
	for _, s := range candidates {
		if strings.Contains(s.URL, "live") {
			valid = append(valid, s)
		} else {
			invalid = append(invalid, s)
		}
	}
	return valid, invalid
}

func srcs(urls ...string) []Source {
	out := make([]Source, 0, len(urls))
	for _, u := range urls {
		out = append(out, newSource("t", u))
	}
	return out
}

func TestAttach_HappyPathNoRepair(t *testing.T) {
	gen := &stubGenerator{batches: [][]Source{
		srcs("https://live1.com", "https://live2.com", "https://live3.com"),
	}}
	val := &stubValidator{}
	p := NewPipeline(gen, val, nil)

	att := p.Attach(context.Background(), "crm", "body", nil)
	if gen.calls != 1 {
		t.Fatalf("expected 1 generation call, got %d", gen.calls)
	}
	if val.passes != 1 {
		t.Fatalf("expected 1 validation pass, got %d", val.passes)
	}
	if !att.Verified || len(att.Sources) != 3 {
		t.Fatalf("verified=%v sources=%d", att.Verified, len(att.Sources))
	}
	if !strings.HasPrefix(att.Rendered, "Sources:\n") {
		t.Fatalf("rendered = %q", att.Rendered)
	}
}

func TestAttach_AllInvalidRepairsExactlyOnce(t *testing.T) {
	gen := &stubGenerator{batches: [][]Source{
		srcs("https://dead1.com", "https://dead2.com"),
		srcs("https://live-a.com", "https://live-b.com", "https://live-c.com"),
	}}
	val := &stubValidator{}
	p := NewPipeline(gen, val, nil)

	att := p.Attach(context.Background(), "crm", "body", nil)
	if gen.calls != 2 {
		t.Fatalf("expected repair to run exactly once, gen calls = %d", gen.calls)
	}
	if val.passes != 2 {
		t.Fatalf("expected 2 validation passes, got %d", val.passes)
	}
	// Displayed sources must come from the post-repair valid set.
	for _, s := range att.Sources {
		if strings.Contains(s.URL, "dead") {
			t.Fatalf("pre-repair invalid source leaked: %q", s.URL)
		}
	}
	if !att.Verified || att.Report.Valid != 3 || att.Report.Invalid != 0 {
		t.Fatalf("verified=%v report=%+v", att.Verified, att.Report)
	}
}

func TestAttach_ZeroValidAfterRepairFallsBackUnverified(t *testing.T) {
	gen := &stubGenerator{batches: [][]Source{
		srcs("https://dead1.com"),
		srcs("https://dead2.com", "https://dead3.com"),
	}}
	p := NewPipeline(gen, &stubValidator{}, nil)

	att := p.Attach(context.Background(), "crm", "body", nil)
	if att.Verified {
		t.Fatal("expected unverified fallback")
	}
	if !strings.HasPrefix(att.Rendered, "Sources (unverified):") {
		t.Fatalf("rendered = %q", att.Rendered)
	}
	// Fallback draws from the repair pass's invalid set.
	if len(att.Sources) != 2 || !strings.Contains(att.Sources[0].URL, "dead2") {
		t.Fatalf("sources = %+v", att.Sources)
	}
}

func TestAttach_GroundingFallbackOrigin(t *testing.T) {
	gen := &stubGenerator{
		batches: [][]Source{nil, nil},
		errs:    []error{errors.New("boom"), errors.New("boom")},
	}
	p := NewPipeline(gen, &stubValidator{}, nil)

	grounding := []ai.GroundingSource{
		{Title: "a", URL: "https://live-g.com"},
		{Title: "dup", URL: "https://live-g.com"},
		{Title: "b", URL: "https://live-h.com"},
		{Title: "c", URL: "https://live-i.com"},
	}
	att := p.Attach(context.Background(), "crm", "body", grounding)
	if att.Origin != "grounding" {
		t.Fatalf("origin = %q", att.Origin)
	}
	if len(att.Sources) != 3 {
		t.Fatalf("expected deduplicated grounding sources, got %+v", att.Sources)
	}
	if !att.Verified {
		t.Fatal("grounding sources validated live should be verified")
	}
}

func TestAttach_NothingAtAll(t *testing.T) {
	gen := &stubGenerator{batches: [][]Source{nil, nil}}
	p := NewPipeline(gen, &stubValidator{}, nil)

	att := p.Attach(context.Background(), "crm", "body", nil)
	if att.Rendered != "Sources: (unavailable)" {
		t.Fatalf("rendered = %q", att.Rendered)
	}
	if len(att.Sources) != 0 {
		t.Fatalf("sources = %+v", att.Sources)
	}
}

func TestAttach_CapsAtFour(t *testing.T) {
	gen := &stubGenerator{batches: [][]Source{
		srcs("https://live1.com", "https://live2.com", "https://live3.com", "https://live4.com", "https://live5.com"),
	}}
	p := NewPipeline(gen, &stubValidator{}, nil)

	att := p.Attach(context.Background(), "crm", "body", nil)
	if len(att.Sources) != 4 {
		t.Fatalf("expected 4 sources, got %d", len(att.Sources))
	}
	if att.Sources[0].URL != "https://live1.com" {
		t.Fatalf("order not stable: %+v", att.Sources)
	}
}
