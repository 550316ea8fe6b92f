// Package orchestrator runs one analysis session per page load and keeps the
// sessions of all open tabs apart.
//
// The browser extension reports page loads, navigations and explanation
// queries; the orchestrator turns them into sessions of the pipeline
// package. Each session runs in its own goroutine with a context derived from
// the orchestrator's base context, so a navigation can cancel the remote
// call of the page that is going away. A session that belongs to a page that
// is gone can never raise an alert.
package orchestrator
