package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rankscout/rankscout/internal/ai"
)

// LLM is the slice of the generation client the source generator needs.
// *ai.Client satisfies it.
type LLM interface {
	Generate(ctx context.Context, req ai.Request) (*ai.Result, error)
}

const generatorSystemPrompt = `You suggest authoritative web sources for market research citations.
Reply with ONLY a JSON array of objects, each {"title": "...", "url": "..."}.
Prefer vendor sites, analyst reports, and well-known industry publications.
URLs must be real, public, and directly relevant to the category.`

// Generator asks the generation capability for category-appropriate sources.
// It serves both the primary path and the repair path of the pipeline.
type Generator struct {
	llm LLM
}

func NewGenerator(llm LLM) *Generator {
	return &Generator{llm: llm}
}

// Generate returns up to n deduplicated sources for the category. resultText
// may be empty (repair path regenerates from the category alone).
func (g *Generator) Generate(ctx context.Context, category, resultText string, n int) ([]Source, error) {
	msg := fmt.Sprintf("Category: %s", category)
	if resultText != "" {
		excerpt := resultText
		if len(excerpt) > 2000 {
			excerpt = excerpt[:2000]
		}
		msg += "\n\nResearch summary the sources should back up:\n" + excerpt
	}
	msg += fmt.Sprintf("\n\nReturn up to %d sources.", n)

	res, err := g.llm.Generate(ctx, ai.Request{
		Mode:        ai.ModeResult,
		System:      generatorSystemPrompt,
		Message:     msg,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("source generation: %w", err)
	}
	return parseSourceList(res.Text, n), nil
}

// parseSourceList extracts a JSON array of {title,url} objects from model
// output, tolerating code fences and surrounding prose. Malformed output
// yields an empty list, never an error.
func parseSourceList(text string, limit int) []Source {
	payload := extractJSONArray(text)
	if payload == "" {
		return nil
	}
	var items []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []Source
	for _, it := range items {
		u := strings.TrimSpace(it.URL)
		if u == "" || !strings.HasPrefix(u, "http") {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, newSource(it.Title, u))
		if len(out) >= limit {
			break
		}
	}
	return out
}

func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
