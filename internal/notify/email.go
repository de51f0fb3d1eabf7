package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EmailChannel asks the email provider to send the welcome/receipt mail.
// The provider owns templates and delivery; this is one POST per purchase.
type EmailChannel struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewEmailChannel(endpoint, apiKey string, client *http.Client) *EmailChannel {
	return &EmailChannel{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, outcome Outcome) error {
	template := "purchase-receipt"
	if outcome.NewCustomer {
		template = "welcome-purchase"
	}

	body, err := json.Marshal(map[string]any{
		"to":       outcome.CustomerEmail,
		"template": template,
		"vars": map[string]any{
			"product_name":   outcome.ProductName,
			"final_amount":   outcome.FinalAmount,
			"currency":       outcome.Currency,
			"transaction_id": outcome.TransactionID,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned %d", resp.StatusCode)
	}
	return nil
}
