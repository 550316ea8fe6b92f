package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/feature"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/presenter"
)

// ExtractStep runs the feature engine on the session's snapshot.
// It moves the session from AwaitingSnapshot to Extracting; moving it on is
// the job of the steps that follow.
type ExtractStep struct {
	// engine derives the feature record.
	engine *feature.Engine
}

// NewExtractStep creates a new extraction step.
func NewExtractStep(engine *feature.Engine) *ExtractStep {
	return &ExtractStep{engine: engine}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extraction step.
// The only error is a session that is not waiting for its snapshot, which
// means the step was run twice or out of order.
func (s *ExtractStep) Do(_ context.Context, session *model.Session) error {
	if err := session.Transition(model.StateExtracting); err != nil {
		return err
	}
	session.SetFeatures(s.engine.Extract(session.Snapshot()))
	return nil
}

// TrustedDomainStep settles sessions of well-known domains without asking
// the classifier. The session gets a "legitimate" result whose Reason names
// the matched domain.
//
// Design decision: The check runs after extraction so that reports of
// trusted pages still carry their feature record. A trusted page is one whose
// hostname, without a leading "www.", equals a trusted domain or is one of
// its subdomains.
type TrustedDomainStep struct {
	// domains are lower-cased trusted domains.
	domains []string

	// logger for structured logging.
	logger *slog.Logger
}

// TrustedDomainStepOption configures a TrustedDomainStep.
type TrustedDomainStepOption func(*TrustedDomainStep)

// WithTrustedDomainLogger sets a custom logger for the trusted domain step.
func WithTrustedDomainLogger(logger *slog.Logger) TrustedDomainStepOption {
	return func(s *TrustedDomainStep) {
		s.logger = logger
	}
}

// NewTrustedDomainStep creates a new trusted domain step.
// An empty list makes the step a no-op.
func NewTrustedDomainStep(domains []string, opts ...TrustedDomainStepOption) *TrustedDomainStep {
	s := &TrustedDomainStep{logger: slog.Default()}
	for _, d := range domains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			s.domains = append(s.domains, d)
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *TrustedDomainStep) Name() string {
	return "trusted_domain"
}

// Do executes the trusted domain step.
func (s *TrustedDomainStep) Do(_ context.Context, session *model.Session) error {
	host, ok := s.Match(session.Snapshot().Hostname)
	if !ok {
		return nil
	}

	s.logger.Debug("trusted domain, skipping classification",
		"session", session.ID(),
		"hostname", host,
	)

	session.SetResult(&model.AnalysisResult{
		Verdict:    model.VerdictLegitimate,
		Reason:     "Trusted domain: " + host,
		ReceivedAt: time.Now(),
	})
	session.Settle()
	return nil
}

// Match reports whether hostname belongs to a trusted domain. It also returns
// the normalized hostname.
func (s *TrustedDomainStep) Match(hostname string) (string, bool) {
	host := strings.ToLower(strings.TrimSpace(hostname))
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}

	for _, d := range s.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return host, true
		}
	}
	return host, false
}

// ClassifyStep submits the feature record to the remote classifier.
// It moves the session from Extracting to Submitting.
//
// Design decision: A classifier failure is not a step failure. The verdict
// is unknown, which is treated as "no alert": the error is logged and
// recorded, the session is settled, and Do returns nil. There is no retry.
type ClassifyStep struct {
	// classifier answers the feature record.
	classifier classifier.Classifier

	// logger for structured logging.
	logger *slog.Logger
}

// ClassifyStepOption configures a ClassifyStep.
type ClassifyStepOption func(*ClassifyStep)

// WithClassifyLogger sets a custom logger for the classify step.
func WithClassifyLogger(logger *slog.Logger) ClassifyStepOption {
	return func(s *ClassifyStep) {
		s.logger = logger
	}
}

// NewClassifyStep creates a new classification step.
func NewClassifyStep(c classifier.Classifier, opts ...ClassifyStepOption) *ClassifyStep {
	s := &ClassifyStep{
		classifier: c,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do executes the classification step.
func (s *ClassifyStep) Do(ctx context.Context, session *model.Session) error {
	features, ok := session.Features()
	if !ok {
		return fmt.Errorf("session %s has no feature record", session.ID())
	}
	if err := session.Transition(model.StateSubmitting); err != nil {
		return err
	}

	result, err := s.classifier.Analyze(ctx, features)
	if err != nil {
		s.logger.Warn("classification failed",
			"session", session.ID(),
			"tab", session.TabID(),
			"error", err,
		)
		session.RecordError(err)
		session.Settle()
		return nil
	}

	if !session.SetResult(result) {
		s.logger.Debug("ignoring second classifier result", "session", session.ID())
		return nil
	}

	s.logger.Info("page classified",
		"session", session.ID(),
		"tab", session.TabID(),
		"verdict", result.Verdict,
	)
	return nil
}

// AlertStep turns a phishing verdict into exactly one alert.
//
// The session must be in Submitting with a result. A result other than the
// literal "phishing" settles the session. A phishing verdict for an abandoned
// session settles it silently. Otherwise the step claims the session's single
// alert, moves it to AlertDispatched and delivers the alert. When the alert
// was already claimed the step does nothing, so running it again after a
// second verdict cannot produce a second alert.
//
// Delivery failures (for example the tab is gone) are logged and swallowed.
type AlertStep struct {
	// presenter receives the alert.
	presenter presenter.Presenter

	// message is the human readable warning.
	message string

	// logger for structured logging.
	logger *slog.Logger
}

// AlertStepOption configures an AlertStep.
type AlertStepOption func(*AlertStep)

// WithAlertMessage sets the warning text. An empty message keeps the default.
func WithAlertMessage(message string) AlertStepOption {
	return func(s *AlertStep) {
		if message != "" {
			s.message = message
		}
	}
}

// WithAlertLogger sets a custom logger for the alert step.
func WithAlertLogger(logger *slog.Logger) AlertStepOption {
	return func(s *AlertStep) {
		s.logger = logger
	}
}

// NewAlertStep creates a new alert step.
func NewAlertStep(p presenter.Presenter, opts ...AlertStepOption) *AlertStep {
	s := &AlertStep{
		presenter: p,
		message:   model.DefaultAlertMessage,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AlertStep) Name() string {
	return "alert"
}

// Do executes the alert step.
func (s *AlertStep) Do(ctx context.Context, session *model.Session) error {
	if !session.Result().IsPhishing() {
		session.Settle()
		return nil
	}

	if session.Abandoned() {
		s.logger.Debug("page is gone, dropping alert",
			"session", session.ID(),
			"tab", session.TabID(),
		)
		session.Settle()
		return nil
	}

	if !session.MarkAlerted() {
		return nil
	}

	if err := session.Transition(model.StateAlertDispatched); err != nil {
		return err
	}

	alert := model.Alert{
		TabID:     session.TabID(),
		SessionID: session.ID(),
		Message:   s.message,
		CreatedAt: time.Now(),
	}

	// Delivery is not tied to the session's cancellation.
	if err := s.presenter.Deliver(context.WithoutCancel(ctx), alert); err != nil {
		s.logger.Warn("alert delivery failed",
			"session", session.ID(),
			"tab", session.TabID(),
			"error", err,
		)
		return nil
	}

	s.logger.Info("alert dispatched",
		"session", session.ID(),
		"tab", session.TabID(),
	)
	return nil
}

// Config holds the collaborators and settings of the default pipeline.
type Config struct {
	// Engine derives feature records.
	Engine *feature.Engine

	// Classifier answers feature records.
	Classifier classifier.Classifier

	// Presenter receives alerts.
	Presenter presenter.Presenter

	// TrustedDomains are settled without classification.
	TrustedDomains []string

	// AlertMessage is the warning text; empty means the default.
	AlertMessage string

	// Logger is shared by the pipeline and its steps.
	Logger *slog.Logger
}

// DefaultPipeline creates the standard page-load pipeline:
// extract, trusted domain check, classify, alert.
//
// Design decision: We provide a default pipeline because:
// 1. The orchestrator and the CLI must run exactly the same stages
// 2. Reduces boilerplate in callers
// 3. Ensures consistent ordering
func DefaultPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := cfg.Engine
	if engine == nil {
		engine = feature.New()
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewExtractStep(engine),
		NewTrustedDomainStep(cfg.TrustedDomains, WithTrustedDomainLogger(logger)),
		NewClassifyStep(cfg.Classifier, WithClassifyLogger(logger)),
		NewAlertStep(cfg.Presenter,
			WithAlertMessage(cfg.AlertMessage),
			WithAlertLogger(logger),
		),
	)

	return p
}
