package feature

import "strings"

// Default keyword and suffix lists. They are approximations tuned for the
// trained classifier; changing them changes the inputs the model sees.
var (
	// DefaultMultiLevelSuffixes are the public suffixes with two labels that
	// the subdomain count knows about.
	DefaultMultiLevelSuffixes = []string{"co.uk", "org.uk", "gov.uk", "ac.uk", "co.jp", "co.in", "com.au"}

	// DefaultBrandKeywords set the Bank flag when found in the URL.
	DefaultBrandKeywords = []string{"amazon", "paypal", "google", "microsoft"}

	// DefaultPayKeywords set the Pay flag when found in the URL.
	DefaultPayKeywords = []string{"pay"}

	// DefaultCryptoKeywords set the Crypto flag when found in the URL.
	DefaultCryptoKeywords = []string{"crypto"}

	// DefaultSocialNetworks are the domains an outbound anchor must point to
	// for HasSocialNet.
	DefaultSocialNetworks = []string{"facebook.com", "twitter.com", "instagram.com", "linkedin.com", "youtube.com"}
)

// Options holds the configurable lists used by the derivations.
// Every list is matched case-insensitively.
type Options struct {
	// MultiLevelSuffixes are two-label public suffixes such as "co.uk".
	MultiLevelSuffixes []string

	// BrandKeywords set Bank when the lower-cased URL contains any of them.
	BrandKeywords []string

	// PayKeywords set Pay when the lower-cased URL contains any of them.
	PayKeywords []string

	// CryptoKeywords set Crypto when the lower-cased URL contains any of them.
	CryptoKeywords []string

	// SocialNetworks are domains (optionally behind "www.") that set
	// HasSocialNet when an anchor links to them.
	SocialNetworks []string
}

// DefaultOptions returns the lists the classifier was trained with.
func DefaultOptions() Options {
	return Options{
		MultiLevelSuffixes: append([]string(nil), DefaultMultiLevelSuffixes...),
		BrandKeywords:      append([]string(nil), DefaultBrandKeywords...),
		PayKeywords:        append([]string(nil), DefaultPayKeywords...),
		CryptoKeywords:     append([]string(nil), DefaultCryptoKeywords...),
		SocialNetworks:     append([]string(nil), DefaultSocialNetworks...),
	}
}

// WithMultiLevelSuffixes replaces the multi-level suffix list.
func WithMultiLevelSuffixes(suffixes ...string) func(*Options) {
	return func(o *Options) {
		o.MultiLevelSuffixes = suffixes
	}
}

// WithBrandKeywords replaces the brand keyword list.
func WithBrandKeywords(keywords ...string) func(*Options) {
	return func(o *Options) {
		o.BrandKeywords = keywords
	}
}

// WithPayKeywords replaces the payment keyword list.
func WithPayKeywords(keywords ...string) func(*Options) {
	return func(o *Options) {
		o.PayKeywords = keywords
	}
}

// WithCryptoKeywords replaces the cryptocurrency keyword list.
func WithCryptoKeywords(keywords ...string) func(*Options) {
	return func(o *Options) {
		o.CryptoKeywords = keywords
	}
}

// WithSocialNetworks replaces the social network domain list.
func WithSocialNetworks(domains ...string) func(*Options) {
	return func(o *Options) {
		o.SocialNetworks = domains
	}
}

// normalized returns a copy with every entry trimmed, lower-cased and
// de-duplicated, and empty entries dropped.
func (o Options) normalized() Options {
	return Options{
		MultiLevelSuffixes: normalizeList(o.MultiLevelSuffixes, "."),
		BrandKeywords:      normalizeList(o.BrandKeywords, ""),
		PayKeywords:        normalizeList(o.PayKeywords, ""),
		CryptoKeywords:     normalizeList(o.CryptoKeywords, ""),
		SocialNetworks:     normalizeList(o.SocialNetworks, "."),
	}
}

// normalizeList cleans a keyword list. cutset is trimmed from both ends of
// each entry in addition to whitespace (leading dots in ".co.uk").
func normalizeList(list []string, cutset string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, item := range list {
		item = strings.ToLower(strings.TrimSpace(item))
		if cutset != "" {
			item = strings.Trim(item, cutset)
		}
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
