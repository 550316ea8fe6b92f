package feature

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/nao1215/phishscan/internal/model"
)

// jsWhitespace is the JavaScript definition of \s. Go's \s only covers ASCII
// whitespace, and markup copied out of a browser regularly carries
// non-breaking spaces between attributes.
const jsWhitespace = `[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

// markupPattern compiles a case-insensitive pattern in which \s follows the
// JavaScript definition.
func markupPattern(p string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + strings.ReplaceAll(p, `\s`, jsWhitespace))
}

var (
	robotsPattern      = markupPattern(`<meta\s+name=["']robots["']\s+content=["'][^"']*noindex[^"']*["']\s*/?>`)
	viewportPattern    = markupPattern(`<meta\s+name=["']viewport["']\s+content=["'][^"']*width=device-width[^"']*["']\s*/?>`)
	descriptionPattern = markupPattern(`<meta\s+name=["']description["']\s+content=["'][^"']+["']\s*/?>`)

	iframePattern         = markupPattern(`<iframe\b`)
	externalFormPattern   = markupPattern(`<form[^>]+action=["']http`)
	submitButtonPattern   = markupPattern(`<input[^>]+type=["']submit["']`)
	hiddenFieldPattern    = markupPattern(`<input[^>]+type=["']hidden["']`)
	passwordFieldPattern  = markupPattern(`<input[^>]+type=["']password["']`)
	imagePattern          = markupPattern(`<img\b`)
	stylesheetPattern     = markupPattern(`<link[^>]+rel=["']stylesheet["']`)
	scriptPattern         = markupPattern(`<script\b`)
	selfReferencePattern  = markupPattern(`href=["']#["']`)
	emptyReferencePattern = markupPattern(`href=["']["']`)
)

// faviconExtractor derives HasFavicon.
type faviconExtractor struct{}

func (faviconExtractor) Name() string { return "favicon" }

func (faviconExtractor) Extract(in *Input) []model.Feature {
	return []model.Feature{model.Flag(HasFavicon, in.Snapshot.Favicon != "")}
}

// metaTagExtractor derives Robots, IsResponsive and HasDescription.
type metaTagExtractor struct{}

func (metaTagExtractor) Name() string { return "meta_tags" }

func (metaTagExtractor) Extract(in *Input) []model.Feature {
	html := in.Snapshot.HTMLContent
	return []model.Feature{
		model.Flag(Robots, robotsPattern.MatchString(html)),
		model.Flag(IsResponsive, viewportPattern.MatchString(html)),
		model.Flag(HasDescription, descriptionPattern.MatchString(html)),
	}
}

// redirectExtractor emits the redirect counts. Counting redirects needs the
// live network chain, so both are always 0; the fields stay because the
// classifier schema requires them.
type redirectExtractor struct{}

func (redirectExtractor) Name() string { return "redirects" }

func (redirectExtractor) Extract(_ *Input) []model.Feature {
	return []model.Feature{
		model.Count(NoOfURLRedirect, 0),
		model.Count(NoOfSelfRedirect, 0),
	}
}

// frameExtractor derives NoOfiFrame.
type frameExtractor struct{}

func (frameExtractor) Name() string { return "frames" }

func (frameExtractor) Extract(in *Input) []model.Feature {
	return []model.Feature{model.Count(NoOfiFrame, countMatches(iframePattern, in.Snapshot.HTMLContent))}
}

// formExtractor derives the form and input flags.
type formExtractor struct{}

func (formExtractor) Name() string { return "forms" }

func (formExtractor) Extract(in *Input) []model.Feature {
	html := in.Snapshot.HTMLContent
	return []model.Feature{
		model.Flag(HasExternalFormSubmit, externalFormPattern.MatchString(html)),
		model.Flag(HasSubmitButton, submitButtonPattern.MatchString(html)),
		model.Flag(HasHiddenFields, hiddenFieldPattern.MatchString(html)),
		model.Flag(HasPasswordField, passwordFieldPattern.MatchString(html)),
	}
}

// socialExtractor derives HasSocialNet: an anchor linking to one of the
// configured social network domains, optionally behind "www.".
type socialExtractor struct {
	// pattern is nil when no social network is configured.
	pattern *regexp.Regexp
}

func newSocialExtractor(domains []string) socialExtractor {
	if len(domains) == 0 {
		return socialExtractor{}
	}
	quoted := make([]string, len(domains))
	for i, d := range domains {
		quoted[i] = regexp.QuoteMeta(d)
	}
	return socialExtractor{
		pattern: markupPattern(`<a[^>]+href=["']https?://(www\.)?(` + strings.Join(quoted, "|") + `)`),
	}
}

func (socialExtractor) Name() string { return "social" }

func (x socialExtractor) Extract(in *Input) []model.Feature {
	found := x.pattern != nil && x.pattern.MatchString(in.Snapshot.HTMLContent)
	return []model.Feature{model.Flag(HasSocialNet, found)}
}

// resourceExtractor derives the image, stylesheet and script counts.
type resourceExtractor struct{}

func (resourceExtractor) Name() string { return "resources" }

func (resourceExtractor) Extract(in *Input) []model.Feature {
	html := in.Snapshot.HTMLContent
	return []model.Feature{
		model.Count(NoOfImage, countMatches(imagePattern, html)),
		model.Count(NoOfCSS, countMatches(stylesheetPattern, html)),
		model.Count(NoOfJS, countMatches(scriptPattern, html)),
	}
}

// referenceExtractor derives the self, empty and external anchor counts.
type referenceExtractor struct{}

func (referenceExtractor) Name() string { return "references" }

func (referenceExtractor) Extract(in *Input) []model.Feature {
	html := in.Snapshot.HTMLContent
	return []model.Feature{
		model.Count(NoOfSelfRef, countMatches(selfReferencePattern, html)),
		model.Count(NoOfEmptyRef, countMatches(emptyReferencePattern, html)),
		model.Count(NoOfExternalRef, countExternalReferences(html, in.Snapshot.Hostname)),
	}
}

// countExternalReferences counts href attributes pointing to an http(s)
// origin that does not start with the page hostname.
//
// Design decision: The rule is a negative lookahead on the escaped hostname,
// which RE2 cannot express, so this one pattern uses regexp2. A lookahead on
// an empty hostname can never succeed, so an unknown hostname yields 0. Any
// matcher error also yields 0.
func countExternalReferences(html, hostname string) int {
	if html == "" || hostname == "" {
		return 0
	}

	re, err := regexp2.Compile(`href=["']https?://(?!`+regexp2.Escape(hostname)+`)`, regexp2.IgnoreCase)
	if err != nil {
		return 0
	}

	count := 0
	m, err := re.FindStringMatch(html)
	for m != nil && err == nil {
		count++
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return 0
	}
	return count
}
