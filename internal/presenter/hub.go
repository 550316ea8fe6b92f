package presenter

import (
	"context"
	"fmt"
	"sync"

	"github.com/nao1215/phishscan/internal/model"
)

// Hub holds alerts for the browser extension.
// A tab is opened when its page load is reported and closed when the page
// navigates away or the tab closes. Each open tab holds at most one pending
// alert; the extension collects it with Collect or Wait.
//
// Design decision: The hub stores alerts instead of pushing them. The
// extension already talks to the service over plain HTTP, and a poll with an
// optional wait keeps the server free of long-lived connections per tab.
type Hub struct {
	mu   sync.Mutex
	tabs map[int]*tabSlot

	// opened numbers every Open call.
	opened uint64
}

// tabSlot is the state of one open tab.
// arrived is closed when an alert is stored or the slot is dropped.
type tabSlot struct {
	alert   *model.Alert
	arrived chan struct{}

	// session is the page load the slot accepts alerts from.
	session string

	// page identifies the Open call that created the tab's page, so
	// waiters can tell a collected alert from a replaced page.
	page uint64
}

func newTabSlot(page uint64, session string) *tabSlot {
	return &tabSlot{arrived: make(chan struct{}), page: page, session: session}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{tabs: make(map[int]*tabSlot)}
}

// Open registers a tab for the page load identified by sessionID. Only alerts
// carrying that session are accepted until the tab is opened again. Opening an
// open tab drops its pending alert, because the page it was meant for has
// been replaced.
func (h *Hub) Open(tabID int, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.tabs[tabID]; ok && old.alert == nil {
		// Wake waiters of the replaced page; they see ErrTabGone.
		close(old.arrived)
	}
	h.opened++
	h.tabs[tabID] = newTabSlot(h.opened, sessionID)
}

// Close removes a tab and its pending alert.
func (h *Hub) Close(tabID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	slot, ok := h.tabs[tabID]
	if !ok {
		return
	}
	if slot.alert == nil {
		close(slot.arrived)
	}
	delete(h.tabs, tabID)
}

// IsOpen reports whether the tab is registered.
func (h *Hub) IsOpen(tabID int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.tabs[tabID]
	return ok
}

// Deliver implements Presenter. It stores the alert as the tab's pending
// alert, replacing an uncollected one. It returns ErrTabGone when the tab is
// not open or is now showing a different page load than the alert's.
func (h *Hub) Deliver(_ context.Context, alert model.Alert) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	slot, ok := h.tabs[alert.TabID]
	if !ok {
		return fmt.Errorf("%w: tab %d", ErrTabGone, alert.TabID)
	}
	if slot.session != alert.SessionID {
		return fmt.Errorf("%w: tab %d moved on from session %s", ErrTabGone, alert.TabID, alert.SessionID)
	}

	if slot.alert == nil {
		close(slot.arrived)
	}
	slot.alert = &alert
	return nil
}

// Collect removes and returns the pending alert of a tab.
func (h *Hub) Collect(tabID int) (model.Alert, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	slot, ok := h.tabs[tabID]
	if !ok || slot.alert == nil {
		return model.Alert{}, false
	}

	alert := *slot.alert
	h.tabs[tabID] = newTabSlot(slot.page, slot.session)
	return alert, true
}

// Wait blocks until the tab has a pending alert, then collects it.
// It returns ErrTabGone when the tab is not open or is closed while waiting,
// and the context error when ctx is done first.
func (h *Hub) Wait(ctx context.Context, tabID int) (model.Alert, error) {
	for {
		h.mu.Lock()
		slot, ok := h.tabs[tabID]
		if !ok {
			h.mu.Unlock()
			return model.Alert{}, fmt.Errorf("%w: tab %d", ErrTabGone, tabID)
		}
		if slot.alert != nil {
			alert := *slot.alert
			h.tabs[tabID] = newTabSlot(slot.page, slot.session)
			h.mu.Unlock()
			return alert, nil
		}
		arrived := slot.arrived
		h.mu.Unlock()

		select {
		case <-arrived:
			h.mu.Lock()
			current, ok := h.tabs[tabID]
			h.mu.Unlock()
			if !ok || current.page != slot.page {
				return model.Alert{}, fmt.Errorf("%w: tab %d", ErrTabGone, tabID)
			}
		case <-ctx.Done():
			return model.Alert{}, ctx.Err()
		}
	}
}
