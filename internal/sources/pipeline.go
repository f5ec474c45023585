package sources

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rankscout/rankscout/internal/ai"
)

const (
	primaryCount = 6
	repairCount  = 5
	minValid     = 3
	maxAttached  = 4
)

type Report struct {
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// Attachment is the pipeline output: the final ordered source list, the
// rendered sources section, and the validation report for the trace.
type Attachment struct {
	Sources  []Source
	Rendered string
	Report   Report
	Verified bool
	Origin   string // "generated" or "grounding"
}

type sourceGenerator interface {
	Generate(ctx context.Context, category, resultText string, n int) ([]Source, error)
}

type sourceValidator interface {
	Validate(ctx context.Context, candidates []Source) (valid, invalid []Source)
}

// Pipeline verifies citations before they reach the user: generate
// candidates (falling back to grounding metadata), validate liveness, and
// run at most one repair pass when validation is insufficient.
type Pipeline struct {
	gen    sourceGenerator
	val    sourceValidator
	logger *zap.Logger
}

func NewPipeline(gen sourceGenerator, val sourceValidator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{gen: gen, val: val, logger: logger}
}

// Attach never fails: generation or repair errors degrade to whatever
// candidates are available, with the rendered section labeled accordingly.
func (p *Pipeline) Attach(ctx context.Context, category, resultText string, grounding []ai.GroundingSource) Attachment {
	raw, err := p.gen.Generate(ctx, category, resultText, primaryCount)
	origin := "generated"
	if err != nil {
		p.logger.Warn("source generation failed", zap.Error(err))
		raw = nil
	}
	if len(raw) == 0 {
		raw = fromGrounding(grounding)
		origin = "grounding"
	}

	valid, invalid := p.val.Validate(ctx, raw)

	// Repair runs at most once; its validation result is authoritative.
	repaired := raw
	if len(invalid) > 0 || len(valid) < minValid {
		fresh, err := p.gen.Generate(ctx, category, "", repairCount)
		if err != nil {
			p.logger.Warn("source repair failed", zap.Error(err))
			fresh = nil
		}
		repaired = fresh
		valid, invalid = p.val.Validate(ctx, fresh)
	}

	report := Report{Valid: len(valid), Invalid: len(invalid)}

	chosen := valid
	verified := true
	if len(chosen) == 0 {
		verified = false
		switch {
		case len(invalid) > 0:
			chosen = invalid
		case len(repaired) > 0:
			chosen = repaired
		default:
			chosen = raw
		}
	}
	if len(chosen) > maxAttached {
		chosen = chosen[:maxAttached]
	}

	return Attachment{
		Sources:  chosen,
		Rendered: render(chosen, verified),
		Report:   report,
		Verified: verified,
		Origin:   origin,
	}
}

func fromGrounding(grounding []ai.GroundingSource) []Source {
	seen := make(map[string]struct{})
	var out []Source
	for _, g := range grounding {
		if g.URL == "" {
			continue
		}
		if _, dup := seen[g.URL]; dup {
			continue
		}
		seen[g.URL] = struct{}{}
		out = append(out, newSource(g.Title, g.URL))
	}
	return out
}

func render(list []Source, verified bool) string {
	if len(list) == 0 {
		return "Sources: (unavailable)"
	}
	label := "Sources:"
	if !verified {
		label = "Sources (unverified):"
	}
	var b strings.Builder
	b.WriteString(label)
	for _, s := range list {
		title := s.Title
		if title == "" {
			title = s.Domain
		}
		b.WriteString(fmt.Sprintf("\n- [%s](%s)", title, s.URL))
	}
	return b.String()
}
