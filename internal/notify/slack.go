package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// SlackChannel posts a purchase summary to an incoming webhook.
type SlackChannel struct {
	webhookURL string
	client     *http.Client
}

func NewSlackChannel(webhookURL string, client *http.Client) *SlackChannel {
	return &SlackChannel{webhookURL: webhookURL, client: client}
}

func (c *SlackChannel) Name() string { return "slack" }

func (c *SlackChannel) Send(ctx context.Context, outcome Outcome) error {
	amount := decimal.NewFromInt(outcome.FinalAmount).Div(decimal.NewFromInt(100))
	text := fmt.Sprintf("New purchase: %s bought %q for %s %s (txn %s)",
		outcome.CustomerEmail, outcome.ProductName, amount.StringFixed(2), outcome.Currency, outcome.TransactionID)
	if outcome.NewCustomer {
		text += " [new customer]"
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}
