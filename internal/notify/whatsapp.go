package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WhatsAppSender posts messages to a WhatsApp HTTP gateway. It implements
// jobs.Sender.
type WhatsAppSender struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewWhatsAppSender constructs the gateway client.
func NewWhatsAppSender(endpoint, token string) *WhatsAppSender {
	return &WhatsAppSender{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one message through the gateway.
func (s *WhatsAppSender) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: gateway returned status %d", resp.StatusCode)
	}
	return nil
}
