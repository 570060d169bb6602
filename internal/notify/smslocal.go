package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	accountdomain "report-api/internal/account/domain"
)

const defaultTimeout = 15 * time.Second

// SMSLocalNotifier delivers verification codes by SMS via the SMS Local API.
type SMSLocalNotifier struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
}

// NewSMSLocalNotifier returns a notifier that uses the given API key and
// optional base URL/sender.
func NewSMSLocalNotifier(apiKey, baseURL, sender string) *SMSLocalNotifier {
	if baseURL == "" {
		baseURL = "https://www.smslocal.com/dev/bulkV2"
	}
	return &SMSLocalNotifier{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SendCode sends the verification code to the account's phone number
// (route=otp). Does not log the code.
func (c *SMSLocalNotifier) SendCode(ctx context.Context, account *accountdomain.Account, code string) error {
	if c.APIKey == "" {
		return fmt.Errorf("notify: SMS API key not configured")
	}
	if account.Phone == "" {
		return fmt.Errorf("notify: account %s has no phone number", account.ID)
	}
	body := map[string]interface{}{
		"route":     "otp",
		"numbers":   account.Phone,
		"variables": code,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify: sms request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
