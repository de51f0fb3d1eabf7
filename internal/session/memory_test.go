package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmnights/checkout-service/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	checkout := Checkout{
		Token:         "tok-1",
		Quote:         models.Quote{ProductID: "sleep-course", FinalAmount: 120, Currency: "AUD"},
		CustomerEmail: "parent@example.com",
		IntentID:      "pi_abc123",
		State:         StateIntentCreated,
	}
	require.NoError(t, s.Put(ctx, checkout))

	got, err := s.Get(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, checkout.Quote, got.Quote)
	assert.Equal(t, StateIntentCreated, got.State)

	require.NoError(t, s.Delete(ctx, "tok-1"))
	got, err = s.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(context.Background(), Checkout{Token: "tok-1"}))

	now = now.Add(2 * time.Minute)
	got, err := s.Get(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got, "expired checkout must behave like an unknown token")
}
