// Package transport builds the HTTP clients phishscan uses to reach the
// remote classifier and, for the CLI, the pages it captures.
//
// Both kinds of traffic can be routed through a SOCKS5 proxy. This is how a
// classifier that only listens inside a private network (behind an SSH
// tunnel or a Tor onion service) is reached, and how suspicious pages are
// fetched without exposing the analyst's address.
//
// Design decision: We expose plain *http.Client values instead of wrapping
// them in our own client type. The classifier and capture packages already
// accept an *http.Client through options, so tests can inject an httptest
// client and production code can inject a proxied one with no extra
// abstraction.
package transport
