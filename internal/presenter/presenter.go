package presenter

import (
	"context"
	"errors"

	"github.com/nao1215/phishscan/internal/model"
)

// ErrTabGone is returned when an alert targets a page context that is closed
// or was never opened.
var ErrTabGone = errors.New("tab is gone")

// Presenter delivers an alert to the page context it belongs to.
// A nil error is the acknowledgement that the alert was accepted.
type Presenter interface {
	Deliver(ctx context.Context, alert model.Alert) error
}

// Func adapts a function to the Presenter interface.
type Func func(ctx context.Context, alert model.Alert) error

// Deliver calls f.
func (f Func) Deliver(ctx context.Context, alert model.Alert) error {
	return f(ctx, alert)
}
