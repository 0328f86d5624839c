package verification

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

// Engine verifies a reference photo against a set of candidate snapshots.
type Engine struct {
	comparer           Comparer
	requiredConfidence float64
	log                *log.Logger
}

// NewEngine builds an engine. The comparer is usually a ResilientComparer
// wrapping the real service client.
func NewEngine(comparer Comparer, requiredConfidence float64, logger *log.Logger) *Engine {
	return &Engine{comparer: comparer, requiredConfidence: requiredConfidence, log: logger}
}

// Verify compares the reference against every snapshot concurrently and
// aggregates the per-snapshot outcomes, in order of precedence:
//
//  1. any MATCH            -> MATCH
//  2. any service ERROR    -> ERROR
//  3. all NO_FACE_DETECTED -> NO_FACE_DETECTED
//  4. otherwise            -> NO_MATCH (at least one comparison succeeded below threshold)
//
// An empty snapshot list is NO_MATCH. The aggregation runs over the full
// completed set of outcomes; a MATCH wins regardless of position.
func (e *Engine) Verify(ctx context.Context, referenceKey string, snapshotKeys []string) Outcome {
	if len(snapshotKeys) == 0 {
		return OutcomeNoMatch
	}

	outcomes := make([]Outcome, len(snapshotKeys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range snapshotKeys {
		g.Go(func() error {
			cmp, err := e.comparer.Compare(gctx, referenceKey, key)
			if err != nil && e.log != nil {
				e.log.Printf("WARN face comparison for snapshot %d: %v", i, err)
			}
			outcomes[i] = classify(cmp, err, e.requiredConfidence)
			return nil
		})
	}
	// Workers never return errors; outcomes carry the classification.
	_ = g.Wait()

	return aggregate(outcomes)
}

func aggregate(outcomes []Outcome) Outcome {
	var sawError, sawNoMatch bool
	for _, o := range outcomes {
		switch o {
		case OutcomeMatch:
			return OutcomeMatch
		case OutcomeError:
			sawError = true
		case OutcomeNoMatch:
			sawNoMatch = true
		}
	}
	switch {
	case sawError:
		return OutcomeError
	case sawNoMatch:
		return OutcomeNoMatch
	default:
		return OutcomeNoFaceDetected
	}
}
