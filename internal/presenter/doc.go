// Package presenter delivers alerts to the surface that shows them to the
// user.
//
// Two presenters are provided:
//   - Hub keeps the pending alert of every open tab until the browser
//     extension collects it through the HTTP API.
//   - Console writes alerts to a terminal for the command line scanner.
//
// Delivery follows one contract: a presenter either accepts the alert or
// returns an error, and the caller treats the error as non-fatal. There is no
// retry and no escalation. ErrTabGone is the error for a page context that no
// longer exists.
package presenter
