package feature

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/phishscan/internal/model"
)

// exampleSnapshot is a small page used by several tests.
func exampleSnapshot() model.Snapshot {
	return model.Snapshot{
		URL:         "http://sub.example.co.uk/?a=1&b=2",
		Hostname:    "sub.example.co.uk",
		HTMLContent: "<img src=x><script>",
		DOMText:     "line1\nline2",
		Title:       "Example",
		Favicon:     "http://x/icon.png",
	}
}

// TestEngineExtractExample tests the record derived from a small page.
func TestEngineExtractExample(t *testing.T) {
	t.Parallel()

	rec := New().Extract(exampleSnapshot())

	want := map[string]float64{
		URLLength:                  33,
		DomainLength:               17,
		IsDomainIP:                 0,
		NoOfSubDomain:              1,
		HasObfuscation:             1,
		NoOfObfuscatedChar:         3,
		NoOfLettersInURL:           20,
		NoOfDegitsInURL:            2,
		NoOfEqualsInURL:            2,
		NoOfQMarkInURL:             1,
		NoOfAmpersandInURL:         1,
		NoOfOtherSpecialCharsInURL: 0,
		IsHTTPS:                    0,
		LineOfCode:                 2,
		LargestLineLength:          5,
		HasFavicon:                 1,
		NoOfImage:                  1,
		NoOfJS:                     1,
		NoOfCSS:                    0,
		NoOfExternalRef:            0,
		NoOfURLRedirect:            0,
		NoOfSelfRedirect:           0,
	}

	for name, expected := range want {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := rec.Get(name)
			if !ok {
				t.Fatalf("expected %s to be present", name)
			}
			if got != expected {
				t.Errorf("got %v, expected %v", got, expected)
			}
		})
	}

	t.Run("ratios use the URL length", func(t *testing.T) {
		t.Parallel()

		got, _ := rec.Get(LetterRatioInURL)
		if got != 20.0/33.0 {
			t.Errorf("got %v, expected %v", got, 20.0/33.0)
		}
	})
}

// TestEngineExtractFieldSet tests that every record has exactly the
// classifier fields in classifier order.
func TestEngineExtractFieldSet(t *testing.T) {
	t.Parallel()

	snapshots := map[string]model.Snapshot{
		"example": exampleSnapshot(),
		"empty":   {},
		"ip":      {URL: "https://10.0.0.1/", Hostname: "10.0.0.1"},
		"garbage": {URL: "%%%", Hostname: "...", HTMLContent: "<<<>>>", DOMText: "\n\n"},
	}

	for name, snap := range snapshots {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := New().Extract(snap)

			if rec.Len() != 42 {
				t.Errorf("expected 42 features, got %d", rec.Len())
			}
			if !slices.Equal(rec.Names(), Names()) {
				t.Errorf("unexpected field order: %v", rec.Names())
			}
		})
	}
}

// TestEngineExtractEmptyURL tests that ratios are 0 when there is no URL.
func TestEngineExtractEmptyURL(t *testing.T) {
	t.Parallel()

	urls := map[string]string{
		"empty":      "",
		"spaces":     "   ",
		"whitespace": "\t\n",
	}

	for name, u := range urls {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := New().Extract(model.Snapshot{URL: u, Hostname: "example.com"})

			for _, f := range rec.Features() {
				if f.Kind == model.KindRatio && f.Value != 0 {
					t.Errorf("expected %s to be 0, got %v", f.Name, f.Value)
				}
			}
			if got := rec.Int(URLLength); got != 0 {
				t.Errorf("expected URLLength 0, got %d", got)
			}
		})
	}
}

// TestEngineExtractIdempotent tests that the same snapshot always yields the
// same record.
func TestEngineExtractIdempotent(t *testing.T) {
	t.Parallel()

	engine := New()
	snap := exampleSnapshot()
	snap.HTMLContent += `<a href="https://other.test/">x</a><iframe>`

	first := engine.Extract(snap)
	second := engine.Extract(snap)

	if !first.Equal(second) {
		t.Error("expected identical records")
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("expected identical JSON, got %s and %s", a, b)
	}
}

// TestEngineExtractJSON tests the classifier request encoding.
func TestEngineExtractJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(New().Extract(exampleSnapshot()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := string(data)

	if !strings.HasPrefix(body, `{"URLLength":33,"DomainLength":17,`) {
		t.Errorf("unexpected prefix: %s", body)
	}
	if !strings.HasSuffix(body, `"NoOfExternalRef":0}`) {
		t.Errorf("unexpected suffix: %s", body)
	}
	if !strings.Contains(body, `"IsHTTPS":0`) {
		t.Errorf("expected integer flag, got %s", body)
	}
}

// TestEngineConcurrentUse tests that one engine can serve many goroutines.
func TestEngineConcurrentUse(t *testing.T) {
	t.Parallel()

	engine := New()
	want := engine.Extract(exampleSnapshot())

	results := make(chan model.FeatureRecord, 16)
	for range 16 {
		go func() {
			results <- engine.Extract(exampleSnapshot())
		}()
	}
	for range 16 {
		if got := <-results; !got.Equal(want) {
			t.Error("expected identical records across goroutines")
		}
	}
}

// TestEngineOptions tests option normalization.
func TestEngineOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		opts := New().Options()
		if !slices.Equal(opts.BrandKeywords, DefaultBrandKeywords) {
			t.Errorf("unexpected brand keywords: %v", opts.BrandKeywords)
		}
		if !slices.Equal(opts.MultiLevelSuffixes, DefaultMultiLevelSuffixes) {
			t.Errorf("unexpected suffixes: %v", opts.MultiLevelSuffixes)
		}
	})

	t.Run("lists are cleaned", func(t *testing.T) {
		t.Parallel()

		opts := New(
			WithBrandKeywords(" ACME ", "", "acme", "Globex"),
			WithMultiLevelSuffixes(".CO.NZ."),
		).Options()

		if !slices.Equal(opts.BrandKeywords, []string{"acme", "globex"}) {
			t.Errorf("unexpected brand keywords: %v", opts.BrandKeywords)
		}
		if !slices.Equal(opts.MultiLevelSuffixes, []string{"co.nz"}) {
			t.Errorf("unexpected suffixes: %v", opts.MultiLevelSuffixes)
		}
	})

	t.Run("returns a copy", func(t *testing.T) {
		t.Parallel()

		engine := New()
		opts := engine.Options()
		opts.BrandKeywords[0] = "changed"

		if engine.Options().BrandKeywords[0] != "amazon" {
			t.Error("expected engine options to be unchanged")
		}
	})

	t.Run("custom suffix changes the subdomain count", func(t *testing.T) {
		t.Parallel()

		snap := model.Snapshot{Hostname: "shop.example.co.nz"}

		if got := New().Extract(snap).Int(NoOfSubDomain); got != 2 {
			t.Errorf("expected 2 with defaults, got %d", got)
		}
		if got := New(WithMultiLevelSuffixes("co.nz")).Extract(snap).Int(NoOfSubDomain); got != 1 {
			t.Errorf("expected 1 with co.nz, got %d", got)
		}
	})
}

// TestEngineExtractorNames tests the registration order.
func TestEngineExtractorNames(t *testing.T) {
	t.Parallel()

	names := New().ExtractorNames()

	if len(names) != 17 {
		t.Fatalf("expected 17 extractors, got %d: %v", len(names), names)
	}
	if names[0] != "url_length" {
		t.Errorf("expected url_length first, got %q", names[0])
	}
	if names[len(names)-1] != "keywords" {
		t.Errorf("expected keywords last, got %q", names[len(names)-1])
	}
}

// TestEngineTitleMatch tests the title heuristics.
func TestEngineTitleMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		snapshot model.Snapshot
		want     model.TitleMatch
	}{
		{
			name:     "title contains hostname",
			snapshot: model.Snapshot{URL: "https://example.com/", Hostname: "Example.com", Title: "Welcome to EXAMPLE.COM"},
			want:     model.TitleMatch{Domain: 1},
		},
		{
			name:     "title contains url",
			snapshot: model.Snapshot{URL: "https://example.com/", Hostname: "example.com", Title: "https://example.com/"},
			want:     model.TitleMatch{Domain: 1, URL: 1},
		},
		{
			name:     "blank title",
			snapshot: model.Snapshot{URL: "https://example.com/", Hostname: "example.com", Title: "   "},
			want:     model.TitleMatch{},
		},
		{
			name:     "empty hostname",
			snapshot: model.Snapshot{Title: "anything"},
			want:     model.TitleMatch{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := New().TitleMatch(tt.snapshot); got != tt.want {
				t.Errorf("got %+v, expected %+v", got, tt.want)
			}
		})
	}
}

// TestJSLength tests UTF-16 length counting.
func TestJSLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"é", 1},
		{"😀", 2},
		{"a😀b", 4},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := jsLength(tt.in); got != tt.want {
				t.Errorf("got %d, expected %d", got, tt.want)
			}
		})
	}
}

// TestNames tests the contract field list.
func TestNames(t *testing.T) {
	t.Parallel()

	names := Names()
	if len(names) != 42 {
		t.Fatalf("expected 42 names, got %d", len(names))
	}
	if names[9] != "NoOfDegitsInURL" || names[15] != "SpacialCharRatioInURL" {
		t.Error("expected contract spellings to be preserved")
	}

	names[0] = "changed"
	if Names()[0] != URLLength {
		t.Error("expected Names to return a copy")
	}
}
