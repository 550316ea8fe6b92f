package feature

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/nao1215/phishscan/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Extractor derives one or more features from a normalized snapshot.
// Implementations must be pure: the same Input always yields the same
// features, and no input may cause a panic.
type Extractor interface {
	// Name returns the extractor's name for logging and tests.
	Name() string

	// Extract returns the features derived from the input.
	Extract(in *Input) []model.Feature
}

// Input is the normalized snapshot handed to every extractor, together with
// values several extractors need (lower-cased strings, URL length).
type Input struct {
	// Snapshot is the normalized page snapshot.
	Snapshot model.Snapshot

	// URLLower is the lower-cased URL.
	URLLower string

	// HostLower is the lower-cased hostname.
	HostLower string

	// URLLength is the URL length in UTF-16 code units.
	URLLength int
}

// NewInput normalizes a snapshot and precomputes the shared values.
func NewInput(s model.Snapshot) *Input {
	s = s.Normalize()
	// A Caser keeps state between calls, so each input gets its own.
	lower := cases.Lower(language.Und)
	return &Input{
		Snapshot:  s,
		URLLower:  lower.String(s.URL),
		HostLower: lower.String(s.Hostname),
		URLLength: jsLength(s.URL),
	}
}

// Engine turns page snapshots into feature records.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	// extractors run in order; their outputs are concatenated.
	extractors []Extractor

	// options are the normalized keyword and suffix lists.
	options Options
}

// New creates an Engine with every built-in extractor registered.
// Options default to DefaultOptions and can be changed with the With* helpers.
func New(opts ...func(*Options)) *Engine {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options = options.normalized()

	e := &Engine{options: options}

	// URL shape
	e.register(urlLengthExtractor{})
	e.register(newHostnameExtractor(options.MultiLevelSuffixes))
	e.register(obfuscationExtractor{})
	e.register(urlCharactersExtractor{})
	e.register(schemeExtractor{})

	// Visible text
	e.register(textShapeExtractor{})
	e.register(popupExtractor{})
	e.register(copyrightExtractor{})

	// Markup
	e.register(faviconExtractor{})
	e.register(metaTagExtractor{})
	e.register(redirectExtractor{})
	e.register(frameExtractor{})
	e.register(formExtractor{})
	e.register(newSocialExtractor(options.SocialNetworks))
	e.register(resourceExtractor{})
	e.register(referenceExtractor{})

	// Keywords
	e.register(keywordExtractor{
		brand:  options.BrandKeywords,
		pay:    options.PayKeywords,
		crypto: options.CryptoKeywords,
	})

	return e
}

// register appends an extractor.
func (e *Engine) register(x Extractor) {
	e.extractors = append(e.extractors, x)
}

// Options returns a copy of the normalized options the engine uses.
func (e *Engine) Options() Options {
	return Options{
		MultiLevelSuffixes: append([]string(nil), e.options.MultiLevelSuffixes...),
		BrandKeywords:      append([]string(nil), e.options.BrandKeywords...),
		PayKeywords:        append([]string(nil), e.options.PayKeywords...),
		CryptoKeywords:     append([]string(nil), e.options.CryptoKeywords...),
		SocialNetworks:     append([]string(nil), e.options.SocialNetworks...),
	}
}

// ExtractorNames returns the registered extractor names in execution order.
func (e *Engine) ExtractorNames() []string {
	names := make([]string, len(e.extractors))
	for i, x := range e.extractors {
		names[i] = x.Name()
	}
	return names
}

// Extract derives the feature record of a snapshot.
// It never fails; see the package documentation for the fallbacks.
func (e *Engine) Extract(s model.Snapshot) model.FeatureRecord {
	in := NewInput(s)

	features := make([]model.Feature, 0, len(fieldOrder))
	for _, x := range e.extractors {
		features = append(features, x.Extract(in)...)
	}

	sortFeatures(features)
	return model.NewFeatureRecord(features)
}

// TitleMatch computes the title heuristics of a snapshot.
// Both scores are 0 when the title is blank or the compared value is empty.
func (e *Engine) TitleMatch(s model.Snapshot) model.TitleMatch {
	in := NewInput(s)
	if !in.Snapshot.HasTitle() {
		return model.TitleMatch{}
	}

	title := cases.Lower(language.Und).String(in.Snapshot.Title)

	var m model.TitleMatch
	if in.HostLower != "" && strings.Contains(title, in.HostLower) {
		m.Domain = 1
	}
	if in.URLLower != "" && strings.Contains(title, in.URLLower) {
		m.URL = 1
	}
	return m
}

// sortFeatures orders features by the classifier field order. Names that are
// not part of the contract go last, in their original order.
func sortFeatures(features []model.Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		return position(features[i].Name) < position(features[j].Name)
	})
}

// position returns the field order index of name, or a value after every
// known field.
func position(name string) int {
	if i, ok := fieldIndex[name]; ok {
		return i
	}
	return len(fieldOrder)
}

// jsLength returns the length of s in UTF-16 code units, which is what
// String.prototype.length reports in the browser.
func jsLength(s string) int {
	n := 0
	for _, r := range s {
		l := utf16.RuneLen(r)
		if l < 0 {
			l = 1
		}
		n += l
	}
	return n
}

// countMatches returns the number of non-overlapping matches of re in s.
func countMatches(re *regexp.Regexp, s string) int {
	if s == "" {
		return 0
	}
	return len(re.FindAllStringIndex(s, -1))
}

// containsAny reports whether s contains any of the keywords.
func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
