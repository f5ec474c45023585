// Package research owns the turn orchestration for a research session: the
// plan/result state machine, turn classification, category inference, and
// the per-session trace.
package research

import (
	"time"

	"github.com/rankscout/rankscout/internal/ai"
	"github.com/rankscout/rankscout/internal/sources"
)

const (
	StatusActive   = "active"
	StatusComplete = "complete"

	PhasePlan   = "plan"
	PhaseResult = "result"

	PlanAwaitingClarification = "awaiting_clarification"
	PlanExecuted              = "executed"
)

type TurnKind string

const (
	TurnPlan    TurnKind = "plan"
	TurnResult  TurnKind = "result"
	TurnApology TurnKind = "apology"
)

// TurnEntry is the append-only trace record of one processed turn.
type TurnEntry struct {
	Turn            int              `json:"turn"`
	UserText        string           `json:"user_text"`
	Kind            TurnKind         `json:"kind"`
	PlanText        string           `json:"plan_text,omitempty"`
	PlanQuestion    string           `json:"plan_question,omitempty"`
	Response        string           `json:"response,omitempty"`
	Sources         []sources.Source `json:"sources,omitempty"`
	Citations       sources.Report   `json:"citations"`
	Model           string           `json:"model,omitempty"`
	ModelsAttempted []string         `json:"models_attempted,omitempty"`
	LatencyMS       int64            `json:"latency_ms"`
	Usage           *ai.Usage        `json:"usage,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

type Trace struct {
	Turns []TurnEntry `json:"turns"`
}

// Session is one plan-to-result conversational round. At most one session
// per user is active at a time; a session flips active-to-complete exactly
// once, when a result is produced.
type Session struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	UserID    uint64 `gorm:"index;not null" json:"-"`
	Username  string `gorm:"type:varchar(64);not null" json:"username"`

	Status    string `gorm:"type:varchar(16);index;not null" json:"status"`
	Phase     string `gorm:"type:varchar(16);not null" json:"phase"`
	TurnCount int    `gorm:"not null" json:"turn_count"`

	History []ai.Message `gorm:"serializer:json" json:"history"`

	PlanText      string   `gorm:"type:text" json:"plan_text,omitempty"`
	PlanQuestions []string `gorm:"serializer:json" json:"plan_questions,omitempty"`
	PlanStatus    *string  `gorm:"type:varchar(32)" json:"plan_status,omitempty"`

	Trace Trace `gorm:"serializer:json" json:"trace"`

	// External observability correlation ids, allocated once per session.
	TraceID    string `gorm:"type:varchar(36)" json:"-"`
	RootSpanID string `gorm:"type:varchar(36)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "research_sessions" }

func (s *Session) AwaitingClarification() bool {
	return s.PlanStatus != nil && *s.PlanStatus == PlanAwaitingClarification && s.PlanText != ""
}
