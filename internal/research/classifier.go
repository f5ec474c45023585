package research

import (
	"context"
	"fmt"

	"github.com/rankscout/rankscout/internal/ai"
)

type Action string

const (
	ActionKeep   Action = "keep"
	ActionReplan Action = "replan"
)

const classifierSystemPrompt = `You decide whether a user's reply to a pending research plan changes the plan's scope.
Reply with ONLY a JSON object: {"action": "keep" | "replan", "reason": "..."}.
"keep": the reply answers or narrows the plan's clarifying question, confirms the plan, or adds detail inside the current scope.
"replan": the reply asks for a different category, different criteria, or otherwise changes what should be researched.`

// Classifier decides whether an incoming message keeps the pending plan
// (auto-advance to results) or forces a replan. It fails open to keep.
type Classifier struct {
	llm LLM
}

func NewClassifier(llm LLM) *Classifier {
	return &Classifier{llm: llm}
}

func (c *Classifier) Classify(ctx context.Context, planText, message string) Action {
	res, err := c.llm.Generate(ctx, ai.Request{
		Mode:        ai.ModePlan,
		System:      classifierSystemPrompt,
		Message:     fmt.Sprintf("Pending plan:\n%s\n\nNew user message:\n%s", planText, message),
		Temperature: 0,
	})
	if err != nil {
		return ActionKeep
	}
	if ParseVerdict(res.Text).Action == "replan" {
		return ActionReplan
	}
	return ActionKeep
}
