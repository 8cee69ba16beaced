package adapter

import (
	"errors"
	"net/http"
)

// Outcome is the domain classification of a provider failure. Only
// OutcomeRetryable participates in the backoff loop; every other outcome
// terminates the attempt sequence on first occurrence.
type Outcome string

const (
	// OutcomeRetryable covers network/connection failures, timeouts and
	// provider 5xx responses.
	OutcomeRetryable Outcome = "RETRYABLE"
	// OutcomeRejected covers provider 4xx responses other than 400, and
	// explicit business rejections. A permanent failure, distinct from a
	// transport error.
	OutcomeRejected Outcome = "REJECTED"
	// OutcomeInvalidRequest is a provider 400: the caller sent bad data.
	OutcomeInvalidRequest Outcome = "INVALID_REQUEST"
	// OutcomeUnknown is any unexpected failure shape.
	OutcomeUnknown Outcome = "UNKNOWN"
)

// Classify maps a gateway failure into a domain outcome.
func Classify(err error) Outcome {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return OutcomeUnknown
	}
	switch {
	case pe.StatusCode == 0:
		// No HTTP status: the call never completed (connection failure,
		// timeout). Worth retrying.
		return OutcomeRetryable
	case pe.StatusCode >= http.StatusInternalServerError:
		return OutcomeRetryable
	case pe.StatusCode == http.StatusBadRequest:
		return OutcomeInvalidRequest
	case pe.StatusCode >= 400:
		return OutcomeRejected
	default:
		return OutcomeUnknown
	}
}
