package presenter

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nao1215/phishscan/internal/model"
)

// Console writes alerts to a terminal.
// It is used by the scan command, where every snapshot is its own tab.
type Console struct {
	mu sync.Mutex
	w  io.Writer

	// labels maps a tab to the URL shown next to its alert.
	labels map[int]string

	delivered int
}

// NewConsole creates a console presenter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, labels: make(map[int]string)}
}

// Label sets the text printed with the alerts of a tab, usually its URL.
func (c *Console) Label(tabID int, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels[tabID] = label
}

// Deliver implements Presenter.
func (c *Console) Deliver(_ context.Context, alert model.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	label, ok := c.labels[alert.TabID]
	if !ok {
		label = fmt.Sprintf("tab %d", alert.TabID)
	}

	if _, err := fmt.Fprintf(c.w, "%s %s\n", alert.Message, label); err != nil {
		return fmt.Errorf("failed to write alert: %w", err)
	}
	c.delivered++
	return nil
}

// Delivered returns the number of alerts written.
func (c *Console) Delivered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}
