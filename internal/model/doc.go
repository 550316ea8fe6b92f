// Package model defines the core data structures used throughout phishscan.
//
// This package contains the following main types:
//   - Snapshot: The raw observation of a single page load
//   - FeatureRecord: The fixed-schema numeric classifier input
//   - AnalysisResult: The classifier verdict and its ranked explanation
//   - Session: One page load's lifecycle through extraction, submission and alerting
//   - ScanReport: The CLI view of a finished session
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The feature engine, the pipeline, the orchestrator, the HTTP
// server and the report writers all share these types, so centralizing them
// prevents import cycles.
package model
