package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SignatureHeader carries the HMAC-SHA256 of the request body when a secret is set
const SignatureHeader = "X-Droidmon-Signature"

// WebhookNotifier posts alerts as JSON to a URL with optional HMAC signing
type WebhookNotifier struct {
	URL    string
	Secret string
	Client *http.Client
}

// NewWebhookNotifier creates a notifier with a 10 second client timeout
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// Sign returns the signature header value for body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (w *WebhookNotifier) Notify(ctx context.Context, a Alert) error {
	payload := map[string]interface{}{
		"event":      "cpu_alert",
		"id":         a.ID,
		"metric":     a.Metric,
		"value":      a.Value,
		"threshold":  a.Threshold,
		"session_id": a.SessionID,
		"message":    a.Message,
		"timestamp":  time.UnixMilli(a.Timestamp).UTC().Format(time.RFC3339),
		"snapshot":   a.Snapshot,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "droidmon/1.0")
	if w.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(w.Secret, body))
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook notification failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
