// Package validation centralizes request size limits shared by handlers
// and their tests.
package validation

const (
	// MaxBatchEntrants caps the identities accepted in a single enter
	// request. Larger batches must be split by the caller.
	MaxBatchEntrants = 64
)
