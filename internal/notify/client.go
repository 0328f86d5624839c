package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	id "supervision/pkg/domain"
)

// HTTPNotifier posts notification requests to the outbound channel service.
// Send never returns anything: failures are logged and dropped, honouring the
// fire-and-forget contract.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
	log      *log.Logger
}

func NewHTTPNotifier(endpoint string, logger *log.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      logger,
	}
}

type sendRequest struct {
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	CRN       string `json:"crn"`
	Reference string `json:"reference,omitempty"`
}

func (n *HTTPNotifier) Send(ctx context.Context, notificationType Type, recipient string, crn id.CRN, reference string) {
	body, err := json.Marshal(sendRequest{
		Type:      string(notificationType),
		Recipient: recipient,
		CRN:       crn.String(),
		Reference: reference,
	})
	if err != nil {
		n.warn("marshal notification for crn=%s: %v", crn, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint+"/notifications", bytes.NewReader(body))
	if err != nil {
		n.warn("build notification request for crn=%s: %v", crn, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.warn("send %s notification for crn=%s: %v", notificationType, crn, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.warn("send %s notification for crn=%s: status %d", notificationType, crn, resp.StatusCode)
	}
}

func (n *HTTPNotifier) warn(format string, args ...any) {
	if n.log != nil {
		n.log.Printf("WARN "+format, args...)
	}
}
