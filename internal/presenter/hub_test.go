package presenter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

func testAlert(tabID int) model.Alert {
	return model.Alert{
		TabID:     tabID,
		SessionID: "session",
		Message:   model.DefaultAlertMessage,
		CreatedAt: time.Now(),
	}
}

// TestHubDeliver tests delivery and collection.
func TestHubDeliver(t *testing.T) {
	t.Parallel()

	t.Run("unknown tab", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		err := h.Deliver(context.Background(), testAlert(1))
		if !errors.Is(err, ErrTabGone) {
			t.Errorf("expected ErrTabGone, got %v", err)
		}
	})

	t.Run("collect once", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")
		if err := h.Deliver(context.Background(), testAlert(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		alert, ok := h.Collect(1)
		if !ok || alert.TabID != 1 {
			t.Fatalf("expected alert for tab 1, got %+v %v", alert, ok)
		}
		if _, ok := h.Collect(1); ok {
			t.Error("expected alert to be collected only once")
		}
		if !h.IsOpen(1) {
			t.Error("expected tab to stay open")
		}
	})

	t.Run("alerts stay with their tab", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")
		h.Open(2, "session")
		if err := h.Deliver(context.Background(), testAlert(2)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := h.Collect(1); ok {
			t.Error("expected no alert for tab 1")
		}
		if _, ok := h.Collect(2); !ok {
			t.Error("expected alert for tab 2")
		}
	})

	t.Run("closed tab", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")
		if err := h.Deliver(context.Background(), testAlert(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		h.Close(1)
		h.Close(1)

		if h.IsOpen(1) {
			t.Error("expected tab to be closed")
		}
		if _, ok := h.Collect(1); ok {
			t.Error("expected pending alert to be dropped")
		}
		if err := h.Deliver(context.Background(), testAlert(1)); !errors.Is(err, ErrTabGone) {
			t.Errorf("expected ErrTabGone, got %v", err)
		}
	})

	t.Run("reopening drops the pending alert", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")
		if err := h.Deliver(context.Background(), testAlert(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		h.Open(1, "session")

		if _, ok := h.Collect(1); ok {
			t.Error("expected pending alert to be dropped")
		}
	})

	t.Run("alert from a replaced page load is refused", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "old")
		h.Open(1, "new")

		stale := testAlert(1)
		stale.SessionID = "old"
		if err := h.Deliver(context.Background(), stale); !errors.Is(err, ErrTabGone) {
			t.Errorf("expected ErrTabGone, got %v", err)
		}
		if _, ok := h.Collect(1); ok {
			t.Error("expected no alert for the new page load")
		}

		current := testAlert(1)
		current.SessionID = "new"
		if err := h.Deliver(context.Background(), current); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if alert, ok := h.Collect(1); !ok || alert.SessionID != "new" {
			t.Errorf("expected alert of the new page load, got %+v %v", alert, ok)
		}
	})

	t.Run("collecting keeps the page load", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")
		if err := h.Deliver(context.Background(), testAlert(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		h.Collect(1)

		other := testAlert(1)
		other.SessionID = "other"
		if err := h.Deliver(context.Background(), other); !errors.Is(err, ErrTabGone) {
			t.Errorf("expected ErrTabGone, got %v", err)
		}
	})
}

// TestHubWait tests waiting for an alert.
func TestHubWait(t *testing.T) {
	t.Parallel()

	t.Run("returns a pending alert immediately", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")
		if err := h.Deliver(context.Background(), testAlert(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		alert, err := h.Wait(context.Background(), 1)
		if err != nil || alert.TabID != 1 {
			t.Errorf("unexpected result %+v %v", alert, err)
		}
	})

	t.Run("wakes on delivery", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")

		done := make(chan error, 1)
		go func() {
			_, err := h.Wait(context.Background(), 1)
			done <- err
		}()

		time.Sleep(10 * time.Millisecond)
		if err := h.Deliver(context.Background(), testAlert(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Wait did not return")
		}
	})

	t.Run("wakes on close", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")

		done := make(chan error, 1)
		go func() {
			_, err := h.Wait(context.Background(), 1)
			done <- err
		}()

		time.Sleep(10 * time.Millisecond)
		h.Close(1)

		select {
		case err := <-done:
			if !errors.Is(err, ErrTabGone) {
				t.Errorf("expected ErrTabGone, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Wait did not return")
		}
	})

	t.Run("context deadline", func(t *testing.T) {
		t.Parallel()

		h := NewHub()
		h.Open(1, "session")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := h.Wait(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("unknown tab", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHub().Wait(context.Background(), 9); !errors.Is(err, ErrTabGone) {
			t.Errorf("expected ErrTabGone, got %v", err)
		}
	})
}

// TestConsole tests the terminal presenter.
func TestConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Label(1, "https://evil.test/")

	if err := c.Deliver(context.Background(), testAlert(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Deliver(context.Background(), testAlert(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, model.DefaultAlertMessage+" https://evil.test/") {
		t.Errorf("expected labeled alert, got %q", out)
	}
	if !strings.Contains(out, "tab 2") {
		t.Errorf("expected fallback label, got %q", out)
	}
	if c.Delivered() != 2 {
		t.Errorf("expected 2 deliveries, got %d", c.Delivered())
	}
}

// TestFunc tests the function adapter.
func TestFunc(t *testing.T) {
	t.Parallel()

	var got model.Alert
	var p Presenter = Func(func(_ context.Context, a model.Alert) error {
		got = a
		return nil
	})

	if err := p.Deliver(context.Background(), testAlert(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TabID != 5 {
		t.Errorf("expected tab 5, got %d", got.TabID)
	}
}
