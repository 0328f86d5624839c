package contacts

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	id "supervision/pkg/domain"
)

// HTTPProvider queries the upstream case-data service. Any failure -
// transport error, non-200, undecodable body - resolves to (nil, nil) so the
// lifecycle never blocks on upstream availability; the miss is logged.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
	log      *log.Logger
}

// NewHTTPProvider builds a provider against the given base URL.
func NewHTTPProvider(endpoint string, logger *log.Logger) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      logger,
	}
}

func (p *HTTPProvider) GetContactDetails(ctx context.Context, crn id.CRN) (*ContactDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/cases/"+crn.String()+"/contact-details", nil)
	if err != nil {
		return nil, nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.warn("contact details lookup failed for %s: %v", crn, err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.warn("contact details lookup for %s returned status %d", crn, resp.StatusCode)
		return nil, nil
	}

	var details ContactDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		p.warn("contact details decode failed for %s: %v", crn, err)
		return nil, nil
	}
	return &details, nil
}

func (p *HTTPProvider) warn(format string, args ...any) {
	if p.log != nil {
		p.log.Printf("WARN "+format, args...)
	}
}
