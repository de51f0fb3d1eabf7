package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	name string
	err  error

	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func newRecordingChannel(name string, err error) *recordingChannel {
	return &recordingChannel{name: name, err: err, done: make(chan struct{})}
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Send(context.Context, Outcome) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	close(c.done)
	return c.err
}

func (c *recordingChannel) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatalf("channel %s was never called", c.name)
	}
}

func TestNotifyFansOutToAllChannels(t *testing.T) {
	ok := newRecordingChannel("ok", nil)
	failing := newRecordingChannel("failing", errors.New("vendor down"))
	alsoOK := newRecordingChannel("also-ok", nil)

	n := NewNotifier([]Channel{ok, failing, alsoOK}, time.Second, zerolog.Nop())
	n.Notify(Outcome{PurchaseID: "p-1", TransactionID: "pi_abc123"})

	// a failing channel never stops the others
	ok.wait(t)
	failing.wait(t)
	alsoOK.wait(t)

	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, alsoOK.calls)
}

func TestNotifyWithNoChannels(t *testing.T) {
	n := NewNotifier(nil, time.Second, zerolog.Nop())
	// must be a no-op, not a panic
	n.Notify(Outcome{PurchaseID: "p-1"})
}

func TestNotifySurvivesPanickingChannel(t *testing.T) {
	panicking := &panicChannel{done: make(chan struct{})}
	ok := newRecordingChannel("ok", nil)

	n := NewNotifier([]Channel{panicking, ok}, time.Second, zerolog.Nop())
	n.Notify(Outcome{PurchaseID: "p-1"})

	<-panicking.done
	ok.wait(t)
	assert.Equal(t, 1, ok.calls)
}

type panicChannel struct {
	done chan struct{}
}

func (c *panicChannel) Name() string { return "panics" }

func (c *panicChannel) Send(context.Context, Outcome) error {
	defer close(c.done)
	panic("vendor sdk exploded")
}

func TestSlackChannelPostsWebhook(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, jsonDecode(r, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewSlackChannel(srv.URL, srv.Client())
	err := ch.Send(context.Background(), Outcome{
		CustomerEmail: "parent@example.com",
		ProductName:   "Sleep Training Course",
		FinalAmount:   120,
		Currency:      "AUD",
		TransactionID: "pi_abc123",
		NewCustomer:   true,
	})
	require.NoError(t, err)
	assert.Contains(t, got["text"], "parent@example.com")
	assert.Contains(t, got["text"], "1.20 AUD")
	assert.Contains(t, got["text"], "[new customer]")
}

func TestSlackChannelReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ch := NewSlackChannel(srv.URL, srv.Client())
	err := ch.Send(context.Background(), Outcome{})
	assert.Error(t, err)
}

func TestPixelChannelPartialFailure(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okSrv.Close()
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer badSrv.Close()

	ch := NewPixelChannel([]string{okSrv.URL, badSrv.URL}, http.DefaultClient)
	err := ch.Send(context.Background(), Outcome{TransactionID: "pi_abc123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), badSrv.URL)
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
