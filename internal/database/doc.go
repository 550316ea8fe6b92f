// Package database provides SQLite-based storage for phishscan scan history.
//
// The HistoryDB stores one row per analyzed page: the page location, the
// verdict, whether an alert was raised, and the full scan report as JSON.
// Storage is opt-in; only `phishscan scan --save` writes to it.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// database is a single file in the XDG data directory and the CGO-free
// driver keeps cross-compilation simple. WAL mode lets `phishscan history`
// read while a batch scan is writing.
package database
