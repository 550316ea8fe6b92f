package config

import (
	"time"

	"github.com/nao1215/phishscan/internal/feature"
)

// File represents the structure of the .phishscan configuration file.
type File struct {
	// Classifier configures the classification service connection.
	Classifier ClassifierSettings `yaml:"classifier,omitempty"`

	// Server configures the extension API.
	Server ServerSettings `yaml:"server,omitempty"`

	// TrustedDomains are settled as legitimate without asking the
	// classifier. Subdomains are trusted too.
	TrustedDomains []string `yaml:"trustedDomains,omitempty"`

	// Features replaces the keyword and suffix lists of the feature engine.
	Features FeatureSettings `yaml:"features,omitempty"`

	// Alert configures the warning shown on a flagged page.
	Alert AlertSettings `yaml:"alert,omitempty"`
}

// ClassifierSettings holds the classification service options.
type ClassifierSettings struct {
	// URL is the base URL of the service.
	URL string `yaml:"url,omitempty"`

	// Timeout bounds one round trip, e.g. "30s". "0s" disables the bound.
	Timeout *time.Duration `yaml:"timeout,omitempty"`

	// Proxy is an optional SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`
}

// ServerSettings holds the extension API options.
type ServerSettings struct {
	// Listen is the address the API listens on.
	Listen string `yaml:"listen,omitempty"`
}

// FeatureSettings holds the feature engine lists.
// A list that is absent keeps the default; a list that is present, even
// empty, replaces it.
type FeatureSettings struct {
	MultiLevelSuffixes []string `yaml:"multiLevelSuffixes,omitempty"`
	BrandKeywords      []string `yaml:"brandKeywords,omitempty"`
	PayKeywords        []string `yaml:"payKeywords,omitempty"`
	CryptoKeywords     []string `yaml:"cryptoKeywords,omitempty"`
	SocialNetworks     []string `yaml:"socialNetworks,omitempty"`
}

// AlertSettings holds the alert presentation options.
type AlertSettings struct {
	// Message replaces the default warning text.
	Message string `yaml:"message,omitempty"`
}

// FeatureOptions returns the feature engine options for the lists set in
// the file.
func (f *File) FeatureOptions() []func(*feature.Options) {
	if f == nil {
		return nil
	}

	var opts []func(*feature.Options)
	fs := f.Features
	if fs.MultiLevelSuffixes != nil {
		opts = append(opts, feature.WithMultiLevelSuffixes(fs.MultiLevelSuffixes...))
	}
	if fs.BrandKeywords != nil {
		opts = append(opts, feature.WithBrandKeywords(fs.BrandKeywords...))
	}
	if fs.PayKeywords != nil {
		opts = append(opts, feature.WithPayKeywords(fs.PayKeywords...))
	}
	if fs.CryptoKeywords != nil {
		opts = append(opts, feature.WithCryptoKeywords(fs.CryptoKeywords...))
	}
	if fs.SocialNetworks != nil {
		opts = append(opts, feature.WithSocialNetworks(fs.SocialNetworks...))
	}
	return opts
}

// NewEngine builds the feature engine configured by the file.
func (f *File) NewEngine() *feature.Engine {
	return feature.New(f.FeatureOptions()...)
}
