package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmnights/checkout-service/internal/metrics"
)

// Outcome is what a completed purchase looks like to the outside world.
type Outcome struct {
	PurchaseID    string `json:"purchase_id"`
	TransactionID string `json:"transaction_id"`
	CustomerEmail string `json:"customer_email"`
	ProductName   string `json:"product_name"`
	FinalAmount   int64  `json:"final_amount"`
	Currency      string `json:"currency"`
	NewCustomer   bool   `json:"new_customer"`
}

// Channel is one fan-out target. Send failures are logged and swallowed by
// the notifier; a channel can never affect the purchase response.
type Channel interface {
	Name() string
	Send(ctx context.Context, outcome Outcome) error
}

type Notifier struct {
	channels []Channel
	timeout  time.Duration
	log      zerolog.Logger
}

func NewNotifier(channels []Channel, timeout time.Duration, log zerolog.Logger) *Notifier {
	return &Notifier{channels: channels, timeout: timeout, log: log}
}

// Notify fans the outcome out to every channel and returns immediately. The
// purchase is already durably recorded when this runs, so each channel is
// best effort: errors are counted and logged at warn level, never escalated.
func (n *Notifier) Notify(outcome Outcome) {
	if len(n.channels) == 0 {
		return
	}

	// detached from the request context: the HTTP response must not wait
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)

	var wg sync.WaitGroup
	for _, ch := range n.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					n.log.Error().Str("channel", ch.Name()).Any("recover", r).Msg("panic in notification channel")
				}
			}()
			if err := ch.Send(ctx, outcome); err != nil {
				metrics.NotificationFailures.WithLabelValues(ch.Name()).Inc()
				n.log.Warn().Str("channel", ch.Name()).Err(err).Msg("notification failed")
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		cancel()
	}()
}
