// Package feature derives the classifier feature record from a page snapshot.
//
// # Architecture
//
// The Engine is an ordered list of small extractors. Each extractor reads the
// normalized snapshot and returns one or more named features; the engine
// concatenates them and puts them in the classifier's field order.
//
// Design decision: We split the derivations into named extractors instead of
// one function that builds the whole record because:
//  1. Each derivation can be tested on its own
//  2. A derivation can be changed without touching the others
//  3. The field names stay in one place (names.go), so a typo cannot slip
//     into a single derivation unnoticed
//
// # Totality
//
// Extraction never fails. Missing fields are empty strings, ratios over an
// empty URL are 0, and a pattern that cannot be evaluated counts as no match.
// Classification must never be blocked by malformed page content.
//
// # Parity
//
// The record has to match what the browser extension computes, because the
// remote classifier was trained on those values. Lengths are counted in
// UTF-16 code units, lower-casing follows full Unicode rules, and whitespace
// in markup patterns uses the JavaScript definition.
//
// # Known approximations
//
//   - Subdomains are counted with a short list of multi-level suffixes, not the
//     public suffix list.
//   - IsDomainIP accepts any dotted quad of 1-3 digit groups (999.999.999.999).
//   - Redirect counts are always 0: following the live redirect chain is out of
//     reach of a pure function, but the classifier requires the fields.
//   - Keyword flags are plain substring checks; "pay" inside an unrelated word
//     still sets Pay.
package feature
