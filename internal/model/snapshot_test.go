package model

import (
	"encoding/json"
	"slices"
	"testing"
)

// TestDecodeSnapshot tests that decoding never fails and degrades per field.
func TestDecodeSnapshot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want Snapshot
	}{
		{
			name: "complete payload",
			data: `{"url":"https://example.com/","hostname":"example.com","domText":"hi","htmlContent":"<p>hi</p>","title":"Example","favicon":"https://example.com/f.ico","links":["https://a.test/"]}`,
			want: Snapshot{
				URL:         "https://example.com/",
				Hostname:    "example.com",
				DOMText:     "hi",
				HTMLContent: "<p>hi</p>",
				Title:       "Example",
				Favicon:     "https://example.com/f.ico",
				Links:       []string{"https://a.test/"},
			},
		},
		{
			name: "wrong types",
			data: `{"url":42,"hostname":null,"domText":["a"],"htmlContent":{"x":1},"title":true,"links":["a",1,null,"b"]}`,
			want: Snapshot{Links: []string{"a", "b"}},
		},
		{
			name: "whitespace url and hostname",
			data: `{"url":"  ","hostname":"\t","domText":"  "}`,
			want: Snapshot{DOMText: "  "},
		},
		{name: "array", data: `["https://example.com/"]`},
		{name: "string", data: `"https://example.com/"`},
		{name: "null", data: `null`},
		{name: "invalid JSON", data: `{"url":`},
		{name: "empty", data: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DecodeSnapshot([]byte(tt.data))

			if got.URL != tt.want.URL || got.Hostname != tt.want.Hostname ||
				got.DOMText != tt.want.DOMText || got.HTMLContent != tt.want.HTMLContent ||
				got.Title != tt.want.Title || got.Favicon != tt.want.Favicon {
				t.Errorf("got %+v, expected %+v", got, tt.want)
			}
			if !slices.Equal(got.Links, tt.want.Links) {
				t.Errorf("got links %v, expected %v", got.Links, tt.want.Links)
			}
		})
	}
}

// TestSnapshotUnmarshalJSON tests lenient decoding inside a larger document.
func TestSnapshotUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var body struct {
		LoadID   string   `json:"load_id"`
		Snapshot Snapshot `json:"snapshot"`
	}

	data := `{"load_id":"l1","snapshot":{"url":"https://example.com/","title":7}}`
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if body.LoadID != "l1" {
		t.Errorf("expected load id l1, got %q", body.LoadID)
	}
	if body.Snapshot.URL != "https://example.com/" {
		t.Errorf("unexpected url %q", body.Snapshot.URL)
	}
	if body.Snapshot.Title != "" {
		t.Errorf("expected empty title, got %q", body.Snapshot.Title)
	}
}

// TestSnapshotNormalize tests normalization.
func TestSnapshotNormalize(t *testing.T) {
	t.Parallel()

	t.Run("keeps text whitespace", func(t *testing.T) {
		t.Parallel()

		s := Snapshot{URL: " ", Hostname: "\n", DOMText: "\n\n", Title: " "}.Normalize()

		if s.URL != "" || s.Hostname != "" {
			t.Errorf("expected empty url and hostname, got %q %q", s.URL, s.Hostname)
		}
		if s.DOMText != "\n\n" {
			t.Errorf("expected text to be kept, got %q", s.DOMText)
		}
	})

	t.Run("copies links", func(t *testing.T) {
		t.Parallel()

		links := []string{"a"}
		s := Snapshot{Links: links}.Normalize()
		s.Links[0] = "b"

		if links[0] != "a" {
			t.Error("expected original links to be unchanged")
		}
	})
}

// TestSnapshotHasTitle tests the title check.
func TestSnapshotHasTitle(t *testing.T) {
	t.Parallel()

	if (Snapshot{Title: " \t"}).HasTitle() {
		t.Error("expected blank title to be absent")
	}
	if !(Snapshot{Title: "Example"}).HasTitle() {
		t.Error("expected title to be present")
	}
}
