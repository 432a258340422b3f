package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable means the catalog, tagging or embedding service could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidInput means the caller supplied an unusable argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAuthFailure means credentials for an upstream service were rejected.
	ErrAuthFailure = errors.New("auth failure")
	// ErrInvalidTaxonomy means a seed taxonomy could not be built.
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")
	// ErrEmbedding means the embedder failed or returned unusable vectors.
	ErrEmbedding = errors.New("embedding failed")
)

// Error kinds reported to transports.
const (
	KindAuthFailure         = "auth_failure"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindInvalidInput        = "invalid_input"
	KindEmbedding           = "embedding"
	KindInternal            = "internal"
)

// UpstreamError marks err as an upstream failure of op. Auth failures keep their kind.
func UpstreamError(op string, err error) error {
	if errors.Is(err, ErrAuthFailure) || errors.Is(err, ErrUpstreamUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}

// AuthError marks err as a credential failure of op.
func AuthError(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, ErrAuthFailure)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrAuthFailure, err)
}

// InvalidInputError returns an ErrInvalidInput with a message for the caller.
func InvalidInputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// KindOf classifies err for transport mapping.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthFailure):
		return KindAuthFailure
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrEmbedding):
		return KindEmbedding
	default:
		return KindInternal
	}
}
