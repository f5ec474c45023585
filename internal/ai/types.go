package ai

import "context"

type Mode string

const (
	ModePlan   Mode = "plan"
	ModeResult Mode = "result"
)

type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type Request struct {
	Mode        Mode
	System      string
	History     []Message
	Message     string
	Grounded    bool // enable retrieval augmentation (web search tool)
	Temperature float32

	// OnFallback, if set, is invoked with the next model about to be tried
	// after a transient failure. Generators ignore it; the fallback client
	// consumes it.
	OnFallback func(model string)
}

type GroundingSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Result struct {
	Text      string
	Usage     *Usage
	Grounding []GroundingSource

	// Filled by the fallback client.
	Model    string
	Attempts []string
}

// Generator issues one generation call against one model.
type Generator interface {
	Generate(ctx context.Context, model string, req Request) (*Result, error)
}
