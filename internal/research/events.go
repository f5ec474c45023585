package research

import (
	"github.com/rankscout/rankscout/internal/ai"
	"github.com/rankscout/rankscout/internal/sources"
)

type EventType string

const (
	// Within one turn events arrive in fixed order: zero or more activity
	// events, exactly one content event, exactly one terminal event
	// (done or error).
	EventActivity EventType = "activity"
	EventContent  EventType = "content"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

type Event struct {
	Type EventType `json:"type"`

	// activity: one short status step. content: the full response body.
	Text string `json:"text,omitempty"`

	// done payload
	Kind      TurnKind         `json:"kind,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Turn      int              `json:"turn,omitempty"`
	Sources   []sources.Source `json:"sources,omitempty"`
	Complete  bool             `json:"complete,omitempty"`

	// error payload
	ErrorCategory ai.ErrorCategory `json:"error_category,omitempty"`
	Message       string           `json:"message,omitempty"`
}
