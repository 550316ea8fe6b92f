package feature

import (
	"regexp"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
)

var (
	// dottedQuadPattern matches IP-shaped hostnames. Octet ranges are not
	// checked, so 999.999.999.999 counts as an IP.
	dottedQuadPattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

	// otherSpecialPattern matches URL characters outside the allowed set of
	// letters, digits and RFC 3986 punctuation.
	otherSpecialPattern = regexp.MustCompile(`[^a-zA-Z0-9\-._~:/?#\[\]@!$&'()*+,;=%]`)

	// obfuscatedCharPattern matches the characters counted as obfuscation.
	obfuscatedCharPattern = regexp.MustCompile(`[@/]`)
)

// urlLengthExtractor derives URLLength.
type urlLengthExtractor struct{}

func (urlLengthExtractor) Name() string { return "url_length" }

func (urlLengthExtractor) Extract(in *Input) []model.Feature {
	return []model.Feature{model.Count(URLLength, in.URLLength)}
}

// hostnameExtractor derives DomainLength, IsDomainIP and NoOfSubDomain.
type hostnameExtractor struct {
	// suffixes are the known two-label public suffixes.
	suffixes map[string]bool
}

func newHostnameExtractor(suffixes []string) hostnameExtractor {
	m := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		m[s] = true
	}
	return hostnameExtractor{suffixes: m}
}

func (hostnameExtractor) Name() string { return "hostname" }

func (x hostnameExtractor) Extract(in *Input) []model.Feature {
	host := in.Snapshot.Hostname
	return []model.Feature{
		model.Count(DomainLength, jsLength(host)),
		model.Flag(IsDomainIP, dottedQuadPattern.MatchString(host)),
		model.Count(NoOfSubDomain, x.subdomains(in.HostLower)),
	}
}

// subdomains counts the labels in front of the registrable domain.
// With a known multi-level suffix the registrable domain has three labels,
// otherwise two.
func (x hostnameExtractor) subdomains(host string) int {
	if host == "" {
		return 0
	}

	labels := strings.Split(host, ".")
	lastTwo := labels[0]
	if n := len(labels); n >= 2 {
		lastTwo = labels[n-2] + "." + labels[n-1]
	}

	registrable := 2
	if x.suffixes[lastTwo] {
		registrable = 3
	}

	return max(0, len(labels)-registrable)
}

// obfuscationExtractor derives HasObfuscation, NoOfObfuscatedChar and
// ObfuscationRatio. An "@" or a "//" anywhere in the URL counts, including
// the "//" that follows the scheme.
type obfuscationExtractor struct{}

func (obfuscationExtractor) Name() string { return "obfuscation" }

func (obfuscationExtractor) Extract(in *Input) []model.Feature {
	u := in.Snapshot.URL
	n := countMatches(obfuscatedCharPattern, u)
	return []model.Feature{
		model.Flag(HasObfuscation, strings.Contains(u, "@") || strings.Contains(u, "//")),
		model.Count(NoOfObfuscatedChar, n),
		model.Ratio(ObfuscationRatio, n, in.URLLength),
	}
}

// urlCharactersExtractor derives the character class counts and ratios of
// the raw URL.
type urlCharactersExtractor struct{}

func (urlCharactersExtractor) Name() string { return "url_characters" }

func (urlCharactersExtractor) Extract(in *Input) []model.Feature {
	u := in.Snapshot.URL

	var letters, digits, equals, qmarks, ampersands int
	for i := 0; i < len(u); i++ {
		c := u[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			letters++
		case c >= '0' && c <= '9':
			digits++
		case c == '=':
			equals++
		case c == '?':
			qmarks++
		case c == '&':
			ampersands++
		}
	}

	// Characters outside the basic multilingual plane count twice, as they
	// do for the page collaborator.
	others := 0
	for _, m := range otherSpecialPattern.FindAllString(u, -1) {
		others += jsLength(m)
	}

	return []model.Feature{
		model.Count(NoOfLettersInURL, letters),
		model.Ratio(LetterRatioInURL, letters, in.URLLength),
		model.Count(NoOfDegitsInURL, digits),
		model.Ratio(DegitRatioInURL, digits, in.URLLength),
		model.Count(NoOfEqualsInURL, equals),
		model.Count(NoOfQMarkInURL, qmarks),
		model.Count(NoOfAmpersandInURL, ampersands),
		model.Count(NoOfOtherSpecialCharsInURL, others),
		model.Ratio(SpacialCharRatioInURL, others, in.URLLength),
	}
}

// schemeExtractor derives IsHTTPS.
type schemeExtractor struct{}

func (schemeExtractor) Name() string { return "scheme" }

func (schemeExtractor) Extract(in *Input) []model.Feature {
	return []model.Feature{model.Flag(IsHTTPS, isHTTPS(in.Snapshot.URL))}
}

// isHTTPS reports whether the URL scheme is https, compared case-insensitively.
// Leading and trailing control characters and spaces are ignored, as the
// WHATWG URL parser does. Only the scheme is inspected, so malformed escapes
// in the path or fragment do not matter.
func isHTTPS(raw string) bool {
	raw = strings.TrimFunc(raw, func(r rune) bool { return r <= ' ' })
	scheme, _, ok := strings.Cut(raw, ":")
	if !ok || !validScheme(scheme) {
		return false
	}
	return strings.EqualFold(scheme, "https")
}

// validScheme checks the RFC 3986 grammar: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ).
func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// keywordExtractor derives Bank, Pay and Crypto from the lower-cased URL.
type keywordExtractor struct {
	brand  []string
	pay    []string
	crypto []string
}

func (keywordExtractor) Name() string { return "keywords" }

func (x keywordExtractor) Extract(in *Input) []model.Feature {
	u := in.URLLower
	return []model.Feature{
		model.Flag(Bank, containsAny(u, x.brand)),
		model.Flag(Pay, containsAny(u, x.pay)),
		model.Flag(Crypto, containsAny(u, x.crypto)),
	}
}
