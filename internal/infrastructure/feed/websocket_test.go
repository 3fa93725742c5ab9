package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func newEchoServer(t *testing.T, messages [][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
		// keep the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + httpURL[len("http"):]
}

func TestWebSocketFeedPublishesDecodedBars(t *testing.T) {
	srv := newEchoServer(t, [][]byte{
		[]byte(`{"symbol":"BTC","ts":1700000000,"open":100,"high":101,"low":99,"close":100.5,"volume":10,"bid":100.4,"ask":100.6}`),
	})
	defer srv.Close()

	f := NewWebSocketFeed(wsURL(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go f.Run(ctx)

	select {
	case bar := <-f.Bars():
		assert.Equal(t, "BTC", bar.Symbol)
		assert.Equal(t, 100.5, bar.Close)
		assert.Equal(t, time.Unix(1700000000, 0).UTC(), bar.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bar")
	}
}

func TestWebSocketFeedDiscardsMalformedMessages(t *testing.T) {
	srv := newEchoServer(t, [][]byte{
		[]byte(`not json`),
		[]byte(`{"symbol":"ETH","ts":1700000001,"close":200}`),
	})
	defer srv.Close()

	f := NewWebSocketFeed(wsURL(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go f.Run(ctx)

	select {
	case bar := <-f.Bars():
		assert.Equal(t, "ETH", bar.Symbol)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bar after malformed message")
	}
}

func TestWebSocketFeedStopsOnCancelledContext(t *testing.T) {
	f := NewWebSocketFeed("ws://127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Run(ctx)
	assert.Error(t, err)
}
