package research

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rankscout/rankscout/internal/ai"
	"github.com/rankscout/rankscout/internal/common"
	"github.com/rankscout/rankscout/internal/sources"
)

// LLM is the slice of the generation client the orchestrator needs.
type LLM interface {
	Generate(ctx context.Context, req ai.Request) (*ai.Result, error)
}

// Citations attaches verified sources to a result body. Never fails.
type Citations interface {
	Attach(ctx context.Context, category, resultText string, grounding []ai.GroundingSource) sources.Attachment
}

// Recorder ships turn records to the external observability capability.
// Implementations are best-effort and must not block turn processing.
type Recorder interface {
	NewTraceIDs() (traceID, spanID string)
	RecordTurn(traceID, parentSpanID, sessionID string, entry TurnEntry)
}

type nopRecorder struct{}

func (nopRecorder) NewTraceIDs() (string, string) { return "", "" }
func (nopRecorder) RecordTurn(_, _, _ string, _ TurnEntry) {}

type Service struct {
	repo       *Repo
	llm        LLM
	classifier *Classifier
	citations  Citations
	recorder   Recorder
	retention  int
	logger     *zap.Logger
}

func NewService(repo *Repo, llm LLM, citations Citations, recorder Recorder, retention int, logger *zap.Logger) *Service {
	if retention <= 0 {
		retention = 50
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		llm:        llm,
		classifier: NewClassifier(llm),
		citations:  citations,
		recorder:   recorder,
		retention:  retention,
		logger:     logger,
	}
}

type planUpdate struct {
	text      string
	questions []string
}

// turnOutcome is the enumerated result of one turn, decided once and then
// dispatched through a single switch for persistence and event emission.
type turnOutcome struct {
	kind     TurnKind
	response string

	plan      *planUpdate // plan turns: the pending plan to persist
	resetPlan bool        // apology turns that clear the pending plan

	attachment *sources.Attachment // result turns

	model    string
	attempts []string
	usage    *ai.Usage
	latency  time.Duration
}

// ProcessTurn runs one chat turn for the user's active session (creating
// one if needed) and returns its ordered event stream: zero or more
// activity events, one content event, one terminal done or error event.
func (s *Service) ProcessTurn(ctx context.Context, userID uint64, username, message string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("turn processing panicked", zap.Any("panic", r))
				events <- Event{
					Type:          EventError,
					ErrorCategory: ai.ErrUnknown,
					Message:       ai.UserMessage(ai.ErrUnknown),
				}
			}
		}()
		s.processTurn(ctx, userID, username, message, func(e Event) { events <- e })
	}()
	return events
}

func (s *Service) processTurn(ctx context.Context, userID uint64, username, message string, emit func(Event)) {
	sess, err := s.loadOrCreate(ctx, userID, username)
	if err != nil {
		s.logger.Error("load session", zap.Uint64("user_id", userID), zap.Error(err))
		emit(Event{Type: EventError, ErrorCategory: ai.ErrUnknown, Message: ai.UserMessage(ai.ErrUnknown)})
		return
	}

	// Empty input short-circuits to the fixed apology without any
	// generation call; it is still recorded as a plan-kind turn.
	if strings.TrimSpace(message) == "" {
		s.finishTurn(ctx, sess, message, turnOutcome{kind: TurnPlan, response: emptyInputApology}, emit)
		return
	}

	mode := ai.ModePlan
	if sess.Phase == PhaseResult {
		mode = ai.ModeResult
	}
	// With a plan awaiting clarification, a keep verdict auto-advances to
	// results without regenerating the plan.
	if mode == ai.ModePlan && sess.AwaitingClarification() {
		if s.classifier.Classify(ctx, sess.PlanText, message) == ActionKeep {
			mode = ai.ModeResult
		}
	}

	var out turnOutcome
	var genErr error
	if mode == ai.ModeResult {
		out, genErr = s.resultTurn(ctx, sess, message, emit)
	} else {
		out, genErr = s.planTurn(ctx, sess, message, emit)
	}
	if genErr != nil {
		cat := ai.Categorize(genErr)
		s.logger.Error("generation failed",
			zap.String("session_id", sess.SessionID),
			zap.String("category", string(cat)),
			zap.Error(genErr))
		emit(Event{Type: EventError, ErrorCategory: cat, Message: ai.UserMessage(cat)})
		return
	}

	s.finishTurn(ctx, sess, message, out, emit)
}

func (s *Service) loadOrCreate(ctx context.Context, userID uint64, username string) (*Session, error) {
	sess, err := s.repo.LatestSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess != nil && sess.Status == StatusActive {
		return sess, nil
	}

	sid, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	traceID, spanID := s.recorder.NewTraceIDs()
	fresh := &Session{
		SessionID:  sid,
		UserID:     userID,
		Username:   username,
		Status:     StatusActive,
		Phase:      PhasePlan,
		TraceID:    traceID,
		RootSpanID: spanID,
	}
	if err := s.repo.CreateSession(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *Service) planTurn(ctx context.Context, sess *Session, message string, emit func(Event)) (turnOutcome, error) {
	start := time.Now()
	res, err := s.llm.Generate(ctx, ai.Request{
		Mode:        ai.ModePlan,
		System:      planSystemPrompt,
		History:     sess.History,
		Message:     message,
		Temperature: 0.3,
		OnFallback:  retryNotifier(emit),
	})
	if err != nil {
		return turnOutcome{}, err
	}

	out := turnOutcome{
		latency:  time.Since(start),
		model:    res.Model,
		attempts: res.Attempts,
		usage:    res.Usage,
	}

	block, perr := ParsePlanBlock(res.Text)
	if perr != nil {
		out.kind = TurnApology
		out.response = malformedPlanApology
		out.resetPlan = true
		return out, nil
	}
	if block.Apology != "" {
		out.kind = TurnApology
		out.response = block.Apology
		out.resetPlan = true
		return out, nil
	}
	question := block.FirstQuestion()
	if block.Plan == "" || question == "" {
		out.kind = TurnApology
		out.response = malformedPlanApology
		out.resetPlan = true
		return out, nil
	}

	for _, step := range block.Activity {
		emit(Event{Type: EventActivity, Text: step})
	}
	out.kind = TurnPlan
	out.response = block.Plan + "\n\n" + question
	out.plan = &planUpdate{text: block.Plan, questions: block.ClarifyingQuestions}
	return out, nil
}

func (s *Service) resultTurn(ctx context.Context, sess *Session, message string, emit func(Event)) (turnOutcome, error) {
	start := time.Now()
	res, err := s.llm.Generate(ctx, ai.Request{
		Mode:        ai.ModeResult,
		System:      resultSystemPrompt,
		History:     sess.History,
		Message:     message,
		Grounded:    true,
		Temperature: 0.4,
		OnFallback:  retryNotifier(emit),
	})
	if err != nil {
		return turnOutcome{}, err
	}

	out := turnOutcome{
		latency:  time.Since(start),
		model:    res.Model,
		attempts: res.Attempts,
		usage:    res.Usage,
	}

	steps, body := ParseResultActivity(res.Text)
	for _, step := range steps {
		emit(Event{Type: EventActivity, Text: step})
	}
	body = StripSourcesSection(body)

	// Out-of-domain refusal: emit the cleaned text as-is, attach no
	// sources, leave existing plan fields untouched.
	if strings.Contains(body, offTopicMarker) {
		out.kind = TurnApology
		out.response = strings.TrimSpace(strings.Replace(body, offTopicMarker, "", 1))
		return out, nil
	}

	category := InferCategory(message, sess.History)
	att := s.citations.Attach(ctx, category, body, res.Grounding)
	out.kind = TurnResult
	out.response = body + "\n\n" + att.Rendered
	out.attachment = &att
	return out, nil
}

// finishTurn applies the outcome to the session, emits the content and
// terminal events, and persists. Persistence is best-effort: the response
// has already been streamed and is not retracted on failure.
func (s *Service) finishTurn(ctx context.Context, sess *Session, message string, out turnOutcome, emit func(Event)) {
	sess.History = append(sess.History,
		ai.Message{Role: "user", Content: message},
		ai.Message{Role: "assistant", Content: out.response},
	)
	sess.TurnCount++

	entry := TurnEntry{
		Turn:            sess.TurnCount,
		UserText:        message,
		Kind:            out.kind,
		Response:        out.response,
		Model:           out.model,
		ModelsAttempted: out.attempts,
		LatencyMS:       out.latency.Milliseconds(),
		Usage:           out.usage,
		CreatedAt:       time.Now(),
	}

	complete := false
	switch out.kind {
	case TurnPlan:
		if out.plan != nil {
			sess.PlanText = out.plan.text
			sess.PlanQuestions = out.plan.questions
			status := PlanAwaitingClarification
			sess.PlanStatus = &status
			entry.PlanText = out.plan.text
			if len(out.plan.questions) > 0 {
				entry.PlanQuestion = out.plan.questions[0]
			}
		}
		sess.Phase = PhasePlan
	case TurnApology:
		if out.resetPlan {
			sess.PlanText = ""
			sess.PlanQuestions = nil
			sess.PlanStatus = nil
		}
	case TurnResult:
		sess.Status = StatusComplete
		sess.Phase = PhaseResult
		status := PlanExecuted
		sess.PlanStatus = &status
		complete = true
		if out.attachment != nil {
			entry.Sources = out.attachment.Sources
			entry.Citations = out.attachment.Report
		}
	}

	sess.Trace.Turns = append(sess.Trace.Turns, entry)

	emit(Event{Type: EventContent, Text: out.response})

	if err := s.repo.Save(ctx, sess); err != nil {
		s.logger.Error("persist session",
			zap.String("session_id", sess.SessionID),
			zap.Error(err))
	} else if complete {
		if err := s.repo.PruneSessions(ctx, sess.UserID, s.retention); err != nil {
			s.logger.Error("prune sessions",
				zap.Uint64("user_id", sess.UserID),
				zap.Error(err))
		}
	}

	s.recorder.RecordTurn(sess.TraceID, sess.RootSpanID, sess.SessionID, entry)

	done := Event{
		Type:      EventDone,
		Kind:      out.kind,
		SessionID: sess.SessionID,
		Turn:      sess.TurnCount,
		Complete:  complete,
	}
	if out.attachment != nil {
		done.Sources = out.attachment.Sources
	}
	emit(done)
}

func retryNotifier(emit func(Event)) func(string) {
	return func(model string) {
		emit(Event{Type: EventActivity, Text: "Retrying with " + model})
	}
}
