// Package pipeline runs the analysis of one page load as a sequence of steps.
//
// A page-load session goes through feature extraction, an optional trusted
// domain short-circuit, the remote classification and the alert decision.
// Each stage is a Step that receives the session and moves it through its
// state machine:
//
//	AwaitingSnapshot -> Extracting -> Submitting -> {AlertDispatched | Settled}
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. Each stage can be tested on its own with a hand-made session
// 2. It provides consistent logging and cancellation handling across stages
// 3. Steps that end the session early (trusted domain, classifier failure)
// simply settle it, and the pipeline stops at the first terminal state
//
// The package also provides a BatchProcessor that analyzes many snapshots
// concurrently with errgroup, for the command line scanner.
package pipeline
