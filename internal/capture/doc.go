// Package capture builds page snapshots from fetched HTML documents.
//
// In production the browser extension observes the rendered page and sends
// the snapshot itself. The command line scanner has no browser, so this
// package fetches the document over HTTP and derives the same fields from
// the static markup: the location and hostname, the visible body text, the
// serialized document element, the title, the declared favicon and the
// resolved anchor targets.
//
// Scripts are not executed, so pages that build their content in JavaScript
// produce a thinner snapshot than the extension would.
package capture
