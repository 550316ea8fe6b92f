package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is a state of the per page-load session state machine.
type SessionState int

const (
	// StateIdle is the state of a session that has not been opened yet.
	StateIdle SessionState = iota
	// StateAwaitingSnapshot waits for the page collaborator's snapshot.
	StateAwaitingSnapshot
	// StateExtracting runs the feature engine.
	StateExtracting
	// StateSubmitting waits for the remote classifier.
	StateSubmitting
	// StateAlertDispatched is terminal: the page was flagged and alerted.
	StateAlertDispatched
	// StateSettled is terminal: no alert for this page load.
	StateSettled
)

// String returns the state name used in logs and API responses.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSnapshot:
		return "awaiting_snapshot"
	case StateExtracting:
		return "extracting"
	case StateSubmitting:
		return "submitting"
	case StateAlertDispatched:
		return "alert_dispatched"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s SessionState) IsTerminal() bool {
	return s == StateAlertDispatched || s == StateSettled
}

// transitions lists the allowed moves of the session state machine.
// Settling is allowed from every non-terminal state after the snapshot
// arrived so that any step can end the session early (trusted domain,
// classifier failure, cancellation).
var transitions = map[SessionState][]SessionState{
	StateIdle:             {StateAwaitingSnapshot},
	StateAwaitingSnapshot: {StateExtracting, StateSettled},
	StateExtracting:       {StateSubmitting, StateSettled},
	StateSubmitting:       {StateAlertDispatched, StateSettled},
}

// Session is one page load's lifecycle through extraction, submission and
// alerting. It is shared between the goroutine running its pipeline and the
// orchestrator, so every field is guarded by mu.
//
// Design decision: The abandoned and alerted flags are separate from the
// state. Abandonment can happen in any state (the user navigates away while
// the classifier is still thinking), and the alerted flag has to be checked
// and set atomically to guarantee a single alert even when the verdict
// handling runs twice.
type Session struct {
	mu sync.Mutex

	id        string
	tabID     int
	loadID    string
	startedAt time.Time

	state     SessionState
	snapshot  Snapshot
	features  *FeatureRecord
	result    *AnalysisResult
	abandoned bool
	alerted   bool
	steps     []string
	errMsg    string
}

// NewSession creates a session in StateIdle for the given tab and load.
func NewSession(tabID int, loadID string) *Session {
	return &Session{
		id:        uuid.NewString(),
		tabID:     tabID,
		loadID:    loadID,
		startedAt: time.Now(),
		state:     StateIdle,
	}
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// TabID returns the page context the session belongs to.
func (s *Session) TabID() int { return s.tabID }

// LoadID returns the page-load identifier supplied by the page collaborator.
func (s *Session) LoadID() string { return s.loadID }

// State returns the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transition moves the session to the given state.
// It returns ErrInvalidTransition when the move is not allowed.
func (s *Session) Transition(to SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, allowed := range transitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
}

// Settle moves a non-terminal session to StateSettled.
// It is a no-op for sessions that already reached a terminal state.
func (s *Session) Settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsTerminal() {
		return
	}
	s.state = StateSettled
}

// SetSnapshot stores the page snapshot.
func (s *Session) SetSnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// Snapshot returns the stored page snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// SetFeatures stores the feature record.
func (s *Session) SetFeatures(rec FeatureRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = &rec
}

// Features returns the feature record, if extraction has run.
func (s *Session) Features() (FeatureRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.features == nil {
		return FeatureRecord{}, false
	}
	return *s.features, true
}

// SetResult stores the analysis result. Only the first result is kept so a
// session never holds more than one AnalysisResult.
func (s *Session) SetResult(r *AnalysisResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil || r == nil {
		return false
	}
	s.result = r
	return true
}

// Result returns the analysis result, or nil.
func (s *Session) Result() *AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Abandon marks the session as belonging to a page context that is gone.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandoned = true
}

// Abandoned reports whether the page context is gone.
func (s *Session) Abandoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abandoned
}

// MarkAlerted claims the session's single alert. It returns true exactly once,
// and never for an abandoned session.
func (s *Session) MarkAlerted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alerted || s.abandoned {
		return false
	}
	s.alerted = true
	return true
}

// Alerted reports whether an alert was claimed for the session.
func (s *Session) Alerted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerted
}

// RecordStep appends a performed pipeline step name.
func (s *Session) RecordStep(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, name)
}

// RecordError stores the message of a non-fatal failure.
func (s *Session) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = err.Error()
}

// View returns a consistent read-only copy of the session.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		ID:        s.id,
		TabID:     s.tabID,
		LoadID:    s.loadID,
		StartedAt: s.startedAt,
		State:     s.state.String(),
		Abandoned: s.abandoned,
		Alerted:   s.alerted,
		Steps:     append([]string(nil), s.steps...),
		Error:     s.errMsg,
	}
	if s.result != nil {
		v.Verdict = s.result.Verdict
	}
	return v
}

// SessionView is a snapshot of a session's state for APIs and reports.
type SessionView struct {
	ID        string    `json:"id"`
	TabID     int       `json:"tab_id"`
	LoadID    string    `json:"load_id"`
	StartedAt time.Time `json:"started_at"`
	State     string    `json:"state"`
	Verdict   string    `json:"verdict,omitempty"`
	Abandoned bool      `json:"abandoned"`
	Alerted   bool      `json:"alerted"`
	Steps     []string  `json:"steps,omitempty"`
	Error     string    `json:"error,omitempty"`
}
