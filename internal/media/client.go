package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	id "supervision/pkg/domain"
)

// HTTPStorage talks to the object storage gateway, which owns buckets,
// credentials and URL signing.
type HTTPStorage struct {
	endpoint string
	client   *http.Client
}

func NewHTTPStorage(endpoint string) *HTTPStorage {
	return &HTTPStorage{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPStorage) PhotoExists(ctx context.Context, setupID id.SetupID) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.endpoint+"/setups/"+setupID.String()+"/photo", nil)
	if err != nil {
		return false, fmt.Errorf("build photo-exists request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("photo-exists call: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("photo-exists returned status %d", resp.StatusCode)
	}
}

func (s *HTTPStorage) OffenderPhotoURL(ctx context.Context, offenderID id.OffenderID) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/offenders/"+offenderID.String()+"/photo-url", nil)
	if err != nil {
		return "", fmt.Errorf("build photo-url request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("photo-url call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("photo-url returned status %d", resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode photo-url response: %w", err)
	}
	return out.URL, nil
}

func (s *HTTPStorage) ReferenceKey(offenderID id.OffenderID) string {
	return "offenders/" + offenderID.String() + "/reference.jpg"
}
