// Package main provides the entry point for the phishscan CLI.
//
// phishscan derives phishing features from web pages, asks a remote
// classifier for a verdict and raises an alert for pages classified as
// phishing. It serves the browser extension and scans pages from the
// command line.
//
// Usage:
//
//	phishscan serve
//	phishscan scan --url https://example.com/login
//	phishscan scan snapshot.json
//
// See --help for all available options.
package main

func main() {
	Execute()
}
