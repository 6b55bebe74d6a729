package domain

import "errors"

var (
	// ErrNoDocuments means zero source documents were discovered.
	ErrNoDocuments = errors.New("no source documents found")

	// ErrNotAvailable means the knowledge base could not be built (no
	// documents, or no chunk embedded successfully). Non-fatal: the chat
	// degrades to its fallback answer.
	ErrNotAvailable = errors.New("knowledge base not available")

	// ErrEmbeddingUnavailable means the embedding model cannot be reached or
	// returned no vector. Fatal for a build when the connectivity probe
	// fails; swallowed per chunk during the bulk phase.
	ErrEmbeddingUnavailable = errors.New("embedding model unavailable")

	// ErrDimensionMismatch means a vector disagrees with the collection's
	// established dimension. The index must be rebuilt, never patched.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrGenerationFailed means the generation model call failed or returned
	// no usable text. Surfaced verbatim; never replaced by a cached answer.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrMissingCredential means no API key was available from the
	// environment or interactive entry. Halts before any core logic runs.
	ErrMissingCredential = errors.New("missing API credential")
)
