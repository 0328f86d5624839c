package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPComparer calls an external face comparison service over HTTP. The
// service contract: POST /compare with the two image keys; 200 with a JSON
// body on success, including a noFaceDetected flag for the benign condition.
type HTTPComparer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPComparer builds a comparer against the given base URL.
func NewHTTPComparer(endpoint string) *HTTPComparer {
	return &HTTPComparer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type compareRequest struct {
	ReferenceKey string  `json:"referenceKey"`
	SnapshotKey  string  `json:"snapshotKey"`
}

type compareResponse struct {
	FaceMatchFound bool    `json:"faceMatchFound"`
	Similarity     float64 `json:"similarity"`
	NoFaceDetected bool    `json:"noFaceDetected"`
}

func (c *HTTPComparer) Compare(ctx context.Context, referenceKey, snapshotKey string) (Comparison, error) {
	body, err := json.Marshal(compareRequest{ReferenceKey: referenceKey, SnapshotKey: snapshotKey})
	if err != nil {
		return Comparison{}, fmt.Errorf("marshal compare request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/compare", bytes.NewReader(body))
	if err != nil {
		return Comparison{}, fmt.Errorf("build compare request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Comparison{}, fmt.Errorf("face comparison call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Comparison{}, fmt.Errorf("face comparison returned status %d", resp.StatusCode)
	}

	var out compareResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Comparison{}, fmt.Errorf("decode compare response: %w", err)
	}
	if out.NoFaceDetected {
		return Comparison{}, ErrNoFaceDetected
	}
	return Comparison{FaceMatchFound: out.FaceMatchFound, Similarity: out.Similarity}, nil
}

// MockComparer returns deterministic comparisons with a configurable latency
// to mimic real-world calls; used when no comparison endpoint is configured.
type MockComparer struct {
	Latency    time.Duration
	Similarity float64
}

func (c MockComparer) Compare(_ context.Context, _, _ string) (Comparison, error) {
	time.Sleep(c.Latency)
	return Comparison{FaceMatchFound: true, Similarity: c.Similarity}, nil
}
