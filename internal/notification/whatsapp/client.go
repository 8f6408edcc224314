package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nudgebot/api/pkg/errors"
)

const messagesURL = "https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json"

// Client sends WhatsApp messages through the Twilio Messages API.
type Client struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	from       string
}

// NewClient creates a Twilio WhatsApp client. from is the sender in
// "whatsapp:+14155238886" form.
func NewClient(accountSID, authToken, from string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
	}
}

// Send delivers a text message to the given WhatsApp number.
func (c *Client) Send(ctx context.Context, to, text string) error {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", normalizeAddress(to))
	form.Set("Body", text)

	endpoint := fmt.Sprintf(messagesURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.DeliveryError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.DeliveryError(fmt.Errorf("failed to send message: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.DeliveryError(fmt.Errorf("twilio API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return nil
}

// normalizeAddress ensures the whatsapp: prefix Twilio expects.
func normalizeAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
