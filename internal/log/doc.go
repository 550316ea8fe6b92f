// Package log provides secure logging functionality built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Truncation of page content (markup, visible text) to a short preview
//   - Configurable log levels with verbose mode support
//
// # Security Features
//
// Page snapshots come from arbitrary, possibly hostile pages, and a phishing
// page is full of credentials typed by its victims. The SecureHandler
// therefore masks values whose key or shape marks them as secrets, and cuts
// bulky page content down before it reaches the log:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (bearer tokens, JWTs, keys)
//   - Markup and visible text attributes (html_content, dom_text, snapshot)
//
// Even in verbose mode, sensitive values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "authorization", "Bearer abc123", // logged as ***REDACTED***
//	    "url", "https://example.test/login",
//	)
//
//	slog.SetDefault(logger)
package log
