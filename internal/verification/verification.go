// Package verification compares an offender's reference photo against the
// snapshots submitted with a check-in and classifies the result. The outward
// contract is Verify: one outcome over the whole snapshot set, never an error.
// Service failures degrade to OutcomeError, which the check-in workflow stores
// for manual review rather than aborting the submission.
package verification

import (
	"context"
	"errors"

	dErrors "supervision/pkg/domain-errors"
)

// Outcome classifies an identity verification.
type Outcome string

const (
	OutcomeMatch          Outcome = "MATCH"
	OutcomeNoMatch        Outcome = "NO_MATCH"
	OutcomeNoFaceDetected Outcome = "NO_FACE_DETECTED"
	OutcomeError          Outcome = "ERROR"
)

// ParseOutcome validates an outcome name supplied by a caller, such as a
// practitioner's manual identity judgement.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeMatch, OutcomeNoMatch, OutcomeNoFaceDetected, OutcomeError:
		return Outcome(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unrecognised verification outcome %q", s)
	}
}

// ErrNoFaceDetected reports that the comparison service could not locate a
// face in either image. This is a benign, expected condition (bad lighting,
// camera angle), distinct from service failure: it is neither retried nor
// counted against the circuit breaker.
var ErrNoFaceDetected = errors.New("no face detected")

// ErrCircuitOpen is returned by the resilient comparer while the breaker
// rejects calls. Classified as OutcomeError by the engine.
var ErrCircuitOpen = errors.New("face comparison circuit open")

// Comparison is the raw result of one reference-vs-snapshot call.
type Comparison struct {
	// FaceMatchFound reports whether the service found a candidate face match
	// at all. False with a nil error means a confident non-match.
	FaceMatchFound bool
	// Similarity is the best match confidence, 0-100. Only meaningful when
	// FaceMatchFound is true.
	Similarity float64
}

// Comparer performs a single image comparison. Implementations may return
// ErrNoFaceDetected; any other error is a service failure.
type Comparer interface {
	Compare(ctx context.Context, referenceKey, snapshotKey string) (Comparison, error)
}

// classify maps one comparison call onto a per-snapshot outcome.
func classify(cmp Comparison, err error, requiredConfidence float64) Outcome {
	switch {
	case errors.Is(err, ErrNoFaceDetected):
		return OutcomeNoFaceDetected
	case err != nil:
		return OutcomeError
	case cmp.FaceMatchFound && cmp.Similarity >= requiredConfidence:
		return OutcomeMatch
	default:
		return OutcomeNoMatch
	}
}
