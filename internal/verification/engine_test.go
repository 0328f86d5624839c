package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scriptedComparer returns a fixed result per snapshot key.
type scriptedComparer struct {
	results map[string]Comparison
	errs    map[string]error
}

func (c *scriptedComparer) Compare(_ context.Context, _, snapshotKey string) (Comparison, error) {
	if err, ok := c.errs[snapshotKey]; ok {
		return Comparison{}, err
	}
	return c.results[snapshotKey], nil
}

func newEngine(c Comparer) *Engine {
	return NewEngine(c, 90, nil)
}

func TestVerify_EmptySnapshotList(t *testing.T) {
	e := newEngine(&scriptedComparer{})
	assert.Equal(t, OutcomeNoMatch, e.Verify(context.Background(), "ref", nil))
}

func TestVerify_SingleSnapshot(t *testing.T) {
	t.Run("similarity at threshold is a match", func(t *testing.T) {
		e := newEngine(&scriptedComparer{results: map[string]Comparison{
			"s1": {FaceMatchFound: true, Similarity: 90},
		}})
		assert.Equal(t, OutcomeMatch, e.Verify(context.Background(), "ref", []string{"s1"}))
	})

	t.Run("similarity below threshold is no match", func(t *testing.T) {
		e := newEngine(&scriptedComparer{results: map[string]Comparison{
			"s1": {FaceMatchFound: true, Similarity: 89.9},
		}})
		assert.Equal(t, OutcomeNoMatch, e.Verify(context.Background(), "ref", []string{"s1"}))
	})

	t.Run("no candidate face match is no match", func(t *testing.T) {
		e := newEngine(&scriptedComparer{results: map[string]Comparison{
			"s1": {FaceMatchFound: false},
		}})
		assert.Equal(t, OutcomeNoMatch, e.Verify(context.Background(), "ref", []string{"s1"}))
	})

	t.Run("no face detected", func(t *testing.T) {
		e := newEngine(&scriptedComparer{errs: map[string]error{"s1": ErrNoFaceDetected}})
		assert.Equal(t, OutcomeNoFaceDetected, e.Verify(context.Background(), "ref", []string{"s1"}))
	})
}

func TestVerify_Aggregation(t *testing.T) {
	t.Run("one match wins regardless of position", func(t *testing.T) {
		e := newEngine(&scriptedComparer{results: map[string]Comparison{
			"s1": {FaceMatchFound: true, Similarity: 10},
			"s2": {FaceMatchFound: true, Similarity: 95},
			"s3": {FaceMatchFound: true, Similarity: 20},
		}})
		assert.Equal(t, OutcomeMatch, e.Verify(context.Background(), "ref", []string{"s1", "s2", "s3"}))
	})

	t.Run("mix of no-face and no-match is no match", func(t *testing.T) {
		e := newEngine(&scriptedComparer{
			results: map[string]Comparison{"s2": {FaceMatchFound: true, Similarity: 50}},
			errs:    map[string]error{"s1": ErrNoFaceDetected},
		})
		assert.Equal(t, OutcomeNoMatch, e.Verify(context.Background(), "ref", []string{"s1", "s2"}))
	})

	t.Run("all no-face is no face detected", func(t *testing.T) {
		e := newEngine(&scriptedComparer{errs: map[string]error{
			"s1": ErrNoFaceDetected,
			"s2": ErrNoFaceDetected,
		}})
		assert.Equal(t, OutcomeNoFaceDetected, e.Verify(context.Background(), "ref", []string{"s1", "s2"}))
	})

	t.Run("service error outranks no-match and no-face", func(t *testing.T) {
		e := newEngine(&scriptedComparer{
			results: map[string]Comparison{"s2": {FaceMatchFound: true, Similarity: 50}},
			errs: map[string]error{
				"s1": errors.New("comparison backend unavailable"),
				"s3": ErrNoFaceDetected,
			},
		})
		assert.Equal(t, OutcomeError, e.Verify(context.Background(), "ref", []string{"s1", "s2", "s3"}))
	})

	t.Run("match beats service error", func(t *testing.T) {
		e := newEngine(&scriptedComparer{
			results: map[string]Comparison{"s2": {FaceMatchFound: true, Similarity: 99}},
			errs:    map[string]error{"s1": errors.New("boom")},
		})
		assert.Equal(t, OutcomeMatch, e.Verify(context.Background(), "ref", []string{"s1", "s2"}))
	})
}
