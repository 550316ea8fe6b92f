// Package server exposes the orchestrator to the browser extension over HTTP.
//
// The extension reports page loads and navigations, polls for the alert of a
// tab, and asks for the explanation of the last verdict:
//
//	POST   /api/v1/tabs/:tab/begin        a page load started
//	POST   /api/v1/tabs/:tab/loads        a page snapshot is ready
//	DELETE /api/v1/tabs/:tab              the tab navigated away or closed
//	GET    /api/v1/tabs/:tab              the tab's session
//	GET    /api/v1/tabs/:tab/alert        the pending alert, if any
//	GET    /api/v1/tabs/:tab/explanation  the ranked explanation
//	GET    /healthz
//
// Design decision: Request bodies are read with gjson instead of binding to
// structs. The snapshot comes straight from page scripts, and a wrong field
// type must be normalized away rather than reject the whole event.
package server
