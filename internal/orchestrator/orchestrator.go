package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// DefaultExplanationSize is the number of explanation entries returned when
// the caller does not ask for a specific number.
const DefaultExplanationSize = 3

// Outcome tells the page collaborator what happened to a reported snapshot.
type Outcome int

const (
	// OutcomeAccepted means the snapshot started an analysis.
	OutcomeAccepted Outcome = iota
	// OutcomeIgnored means the load already had a snapshot.
	OutcomeIgnored
)

// String returns the outcome name used in API responses.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// PageLoadEvent is the page collaborator's report of a loaded page.
type PageLoadEvent struct {
	// TabID identifies the page context.
	TabID int

	// LoadID identifies the page load within the tab. An empty LoadID is a
	// new load every time.
	LoadID string

	// Snapshot is the observation of the loaded page.
	Snapshot model.Snapshot
}

// TabObserver is told when a tab gets a new page and when it goes away.
// Open names the session of the new page so that alerts of replaced sessions
// can be refused. presenter.Hub implements it.
type TabObserver interface {
	Open(tabID int, sessionID string)
	Close(tabID int)
}

// tab is the current session of a page context.
type tab struct {
	session *model.Session

	// cancel stops the session's pipeline. Nil until the snapshot arrived.
	cancel context.CancelFunc
}

// Orchestrator maps tabs to their current session and runs the sessions.
// It is safe for concurrent use.
//
// Design decision: We keep only the latest session per tab. Older sessions
// of the tab are abandoned and forgotten as soon as a new load begins, so
// their late verdicts have nowhere to go. This is what keeps an alert from
// landing on a page it was not computed for.
type Orchestrator struct {
	// pipeline runs every session; it holds no per-session state.
	pipeline *pipeline.Pipeline

	// observer is told about tab changes. May be nil.
	observer TabObserver

	// logger for structured logging.
	logger *slog.Logger

	// ctx is the parent of every session context.
	ctx    context.Context
	cancel context.CancelFunc

	// group tracks the session goroutines.
	group errgroup.Group

	mu     sync.Mutex
	tabs   map[int]*tab
	closed bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTabObserver sets the observer told about opened and closed tabs.
func WithTabObserver(observer TabObserver) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithBaseContext sets the parent context of every session.
// Cancelling it cancels every running session.
func WithBaseContext(ctx context.Context) Option {
	return func(o *Orchestrator) {
		o.ctx = ctx
	}
}

// New creates an Orchestrator running sessions through p.
func New(p *pipeline.Pipeline, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		pipeline: p,
		tabs:     make(map[int]*tab),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	o.ctx, o.cancel = context.WithCancel(o.ctx)

	return o
}

// BeginLoad opens a session for a page load that has started but has not
// reported its snapshot yet. An earlier session of the tab is abandoned.
// Beginning the load that is already current is a no-op.
func (o *Orchestrator) BeginLoad(tabID int, loadID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}

	if t, ok := o.tabs[tabID]; ok && loadID != "" && t.session.LoadID() == loadID {
		return nil
	}

	_, err := o.openLocked(tabID, loadID)
	return err
}

// HandleSnapshot reports a page snapshot.
//
// The first snapshot of a load starts the load's session and returns
// OutcomeAccepted; the analysis runs in the background. A further snapshot
// for the same load returns OutcomeIgnored. A snapshot for a different load
// abandons the tab's current session and starts a new one.
//
// ctx is only checked before anything happens; the session outlives the
// request that reported it.
func (o *Orchestrator) HandleSnapshot(ctx context.Context, ev PageLoadEvent) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return OutcomeIgnored, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return OutcomeIgnored, ErrClosed
	}

	t, ok := o.tabs[ev.TabID]
	if ok && ev.LoadID != "" && t.session.LoadID() == ev.LoadID {
		if t.cancel != nil {
			o.logger.Debug("duplicate snapshot ignored",
				"tab", ev.TabID,
				"load", ev.LoadID,
			)
			return OutcomeIgnored, nil
		}
	} else {
		var err error
		if t, err = o.openLocked(ev.TabID, ev.LoadID); err != nil {
			return OutcomeIgnored, err
		}
	}

	o.startLocked(t, ev.Snapshot)
	return OutcomeAccepted, nil
}

// openLocked replaces the tab's session with a new one awaiting its
// snapshot. o.mu must be held.
func (o *Orchestrator) openLocked(tabID int, loadID string) (*tab, error) {
	o.abandonLocked(tabID)

	session := model.NewSession(tabID, loadID)
	if err := session.Transition(model.StateAwaitingSnapshot); err != nil {
		return nil, err
	}

	t := &tab{session: session}
	o.tabs[tabID] = t
	if o.observer != nil {
		o.observer.Open(tabID, session.ID())
	}

	o.logger.Debug("page load begun",
		"tab", tabID,
		"load", loadID,
		"session", session.ID(),
	)
	return t, nil
}

// startLocked stores the snapshot and runs the session's pipeline in a new
// goroutine. o.mu must be held.
func (o *Orchestrator) startLocked(t *tab, snapshot model.Snapshot) {
	session := t.session
	session.SetSnapshot(snapshot.Normalize())

	ctx, cancel := context.WithCancel(o.ctx)
	t.cancel = cancel

	o.group.Go(func() error {
		defer cancel()

		if err := o.pipeline.Execute(ctx, session); err != nil {
			o.logger.Warn("session ended with error",
				"tab", session.TabID(),
				"session", session.ID(),
				"error", err,
			)
		}

		o.logger.Debug("session finished",
			"tab", session.TabID(),
			"session", session.ID(),
			"state", session.State(),
		)
		// Session errors are recorded in the session, never returned.
		return nil
	})
}

// abandonLocked abandons and forgets the tab's session. o.mu must be held.
func (o *Orchestrator) abandonLocked(tabID int) bool {
	t, ok := o.tabs[tabID]
	if !ok {
		return false
	}

	t.session.Abandon()
	if t.cancel != nil {
		t.cancel()
	}
	delete(o.tabs, tabID)
	return true
}

// Navigate reports that the tab's page is gone (navigation or tab close).
// The tab's session is abandoned and its remote call cancelled; a verdict
// that still arrives raises no alert. It reports whether the tab had a
// session.
func (o *Orchestrator) Navigate(tabID int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	found := o.abandonLocked(tabID)
	if o.observer != nil {
		o.observer.Close(tabID)
	}

	if found {
		o.logger.Debug("page abandoned", "tab", tabID)
	}
	return found
}

// Explanation returns up to topN ranked explanation entries of the tab's
// current analysis. A non-positive topN means DefaultExplanationSize. The
// boolean is false when no explanation is available: no session, no verdict
// yet, or a verdict without explanation.
func (o *Orchestrator) Explanation(tabID, topN int) ([]model.Contribution, bool) {
	session, ok := o.current(tabID)
	if !ok {
		return nil, false
	}

	if topN <= 0 {
		topN = DefaultExplanationSize
	}

	top := session.Result().Top(topN)
	if len(top) == 0 {
		return nil, false
	}
	return top, true
}

// Session returns a read-only view of the tab's current session.
func (o *Orchestrator) Session(tabID int) (model.SessionView, bool) {
	session, ok := o.current(tabID)
	if !ok {
		return model.SessionView{}, false
	}
	return session.View(), true
}

// Tabs returns the number of tabs with a current session.
func (o *Orchestrator) Tabs() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tabs)
}

func (o *Orchestrator) current(tabID int) (*model.Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.tabs[tabID]
	if !ok {
		return nil, false
	}
	return t.session, true
}

// Wait blocks until every started session has finished.
func (o *Orchestrator) Wait() {
	_ = o.group.Wait() //nolint:errcheck // session goroutines never return errors
}

// Close stops accepting page loads, cancels every running session and waits
// for them to finish. Sessions cancelled this way raise no alert.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	for tabID := range o.tabs {
		o.abandonLocked(tabID)
	}
	o.mu.Unlock()

	o.cancel()
	o.Wait()
	return nil
}
