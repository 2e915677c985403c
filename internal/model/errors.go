package model

import "errors"

// Failures that make a claim unverifiable in principle. These propagate to
// the caller as explicit errors, distinguishable from a low-confidence
// Unverifiable verdict. Per-snippet NLI failures and explainer outages are
// absorbed locally and never surface here.
var (
	// ErrEmptyClaim means the claim text was missing or blank. No pipeline
	// work is performed when this is returned.
	ErrEmptyClaim = errors.New("claim text is empty")

	// ErrNoEvidence means retrieval returned zero snippets for the claim.
	ErrNoEvidence = errors.New("no evidence retrieved for claim")

	// ErrEmbeddingUnavailable means the embedding capability failed, so
	// clustering cannot proceed. No partial verdict is produced.
	ErrEmbeddingUnavailable = errors.New("embedding capability unavailable")
)
