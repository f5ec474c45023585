package research

import (
	"encoding/json"
	"errors"
	"strings"
)

// PlanBlock is the structured payload expected in a plan-mode reply.
type PlanBlock struct {
	Plan                string   `json:"plan"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
	ReadyForResults     bool     `json:"ready_for_results"`
	Activity            []string `json:"activity"`
	Apology             string   `json:"apology"`
}

// FirstQuestion returns the first non-blank clarifying question, or "".
func (b *PlanBlock) FirstQuestion() string {
	for _, q := range b.ClarifyingQuestions {
		if q = strings.TrimSpace(q); q != "" {
			return q
		}
	}
	return ""
}

var errNoStructuredBlock = errors.New("no structured block in reply")

// ParsePlanBlock extracts the JSON plan block from model output. Callers
// must handle the error branch; malformed output is expected, not fatal.
// A plan with zero clarifying questions cannot claim readiness, so
// ready_for_results is forced to false in that case.
func ParsePlanBlock(text string) (*PlanBlock, error) {
	payload := extractJSONObject(text)
	if payload == "" {
		return nil, errNoStructuredBlock
	}
	var block PlanBlock
	if err := json.Unmarshal([]byte(payload), &block); err != nil {
		return nil, err
	}
	var questions []string
	for _, q := range block.ClarifyingQuestions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	block.ClarifyingQuestions = questions
	block.Plan = strings.TrimSpace(block.Plan)
	block.Apology = strings.TrimSpace(block.Apology)
	if len(block.ClarifyingQuestions) == 0 {
		block.ReadyForResults = false
	}
	return &block, nil
}

type Verdict struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// ParseVerdict reads the classifier's {action, reason} block. Anything
// unparseable, or an unrecognized action, defaults to keep: ambiguous
// classifier output should finish the research, not loop on clarification.
func ParseVerdict(text string) Verdict {
	payload := extractJSONObject(text)
	if payload == "" {
		return Verdict{Action: "keep"}
	}
	var v Verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return Verdict{Action: "keep"}
	}
	switch strings.ToLower(strings.TrimSpace(v.Action)) {
	case "replan":
		v.Action = "replan"
	default:
		v.Action = "keep"
	}
	return v
}

// extractJSONObject pulls the first {...last} span out of model output,
// tolerating ```json fences and surrounding prose.
func extractJSONObject(text string) string {
	text = stripFences(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	return strings.ReplaceAll(text, "```", "")
}

const activityPrefix = "ACTIVITY:"

// ParseResultActivity splits a leading "ACTIVITY: [...]" line (a JSON
// string array) off a result body. Absent or malformed lines yield no
// steps and the body unchanged.
func ParseResultActivity(text string) (steps []string, body string) {
	trimmed := strings.TrimLeft(text, " \n\t")
	if !strings.HasPrefix(trimmed, activityPrefix) {
		return nil, text
	}
	line := trimmed
	rest := ""
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		line = trimmed[:idx]
		rest = trimmed[idx+1:]
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, activityPrefix))
	var parsed []string
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, text
	}
	for _, s := range parsed {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	return steps, strings.TrimLeft(rest, "\n")
}

// StripSourcesSection drops a trailing model-emitted "Sources:" section;
// the system always attaches its own.
func StripSourcesSection(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		l := strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*#")))
		if strings.HasPrefix(l, "sources:") || l == "sources" {
			return strings.TrimRight(strings.Join(lines[:i], "\n"), "\n ")
		}
	}
	return strings.TrimSpace(text)
}
