package services

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is returned when a document has no text to index. It is
// user-actionable (re-upload, fix extraction) rather than retryable.
var ErrEmptyContent = errors.New("no text content to index")

// Pipeline stage names recorded on ingestion failures.
const (
	StageExtract = "extract"
	StageChunk   = "chunk"
	StageEmbed   = "embed"
	StageStore   = "store"
)

// EmbeddingServiceError wraps an upstream embedding failure, including a
// mismatched vector count. Always fatal to the in-flight batch; retry policy
// belongs to the caller.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// asEmbeddingError wraps err as an EmbeddingServiceError unless it already
// is one.
func asEmbeddingError(err error) error {
	var ee *EmbeddingServiceError
	if errors.As(err, &ee) {
		return err
	}
	return &EmbeddingServiceError{Err: err}
}

// StoreInsertError wraps a chunk store write failure.
type StoreInsertError struct {
	Err error
}

func (e *StoreInsertError) Error() string { return fmt.Sprintf("chunk store insert: %v", e.Err) }
func (e *StoreInsertError) Unwrap() error { return e.Err }

// StoreQueryError wraps a chunk store read failure.
type StoreQueryError struct {
	Err error
}

func (e *StoreQueryError) Error() string { return fmt.Sprintf("chunk store query: %v", e.Err) }
func (e *StoreQueryError) Unwrap() error { return e.Err }

// GenerativeServiceError wraps a failure of the generative model during
// answer synthesis. Distinct from the empty-index case, which is a normal
// fallback answer and not an error.
type GenerativeServiceError struct {
	Err error
}

func (e *GenerativeServiceError) Error() string {
	return fmt.Sprintf("generative service: %v", e.Err)
}

func (e *GenerativeServiceError) Unwrap() error { return e.Err }

// IngestionError is the single coarse failure the pipeline returns to its
// caller. Stage names which step failed; the same stage+message is recorded
// on the source's status row.
type IngestionError struct {
	Stage string
	Err   error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
