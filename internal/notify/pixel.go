package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// PixelChannel fires the server-side purchase event to each configured
// marketing-pixel collector. Vendors get the same payload; there is no
// contract beyond "send event", so a partial failure only fails the
// vendors that refused it.
type PixelChannel struct {
	endpoints []string
	client    *http.Client
}

func NewPixelChannel(endpoints []string, client *http.Client) *PixelChannel {
	return &PixelChannel{endpoints: endpoints, client: client}
}

func (c *PixelChannel) Name() string { return "pixels" }

func (c *PixelChannel) Send(ctx context.Context, outcome Outcome) error {
	body, err := json.Marshal(map[string]any{
		"event":          "Purchase",
		"email":          outcome.CustomerEmail,
		"content_name":   outcome.ProductName,
		"value":          outcome.FinalAmount,
		"currency":       outcome.Currency,
		"transaction_id": outcome.TransactionID,
	})
	if err != nil {
		return err
	}

	var failed []string
	for _, endpoint := range c.endpoints {
		if err := c.post(ctx, endpoint, body); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", endpoint, err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("pixel events failed: %s", strings.Join(failed, "; "))
	}
	return nil
}

func (c *PixelChannel) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
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
		return fmt.Errorf("collector returned %d", resp.StatusCode)
	}
	return nil
}
