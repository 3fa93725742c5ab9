// Package feed adapts exchange market-data streams into the bar channel
// the Trading System driver loop consumes; it carries no fill stream.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// barMessage is the wire shape a venue publishes per trade/bar tick.
type barMessage struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"ts"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
}

// WebSocketFeed streams market bars from a single venue endpoint,
// reconnecting through a rate limiter and tripping a circuit breaker
// after repeated connection failures (a failed dial or a dropped read).
type WebSocketFeed struct {
	url     string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	bars    chan core.MarketData
}

// NewWebSocketFeed wires a reconnect circuit breaker (open after 3
// consecutive connection failures, half-open probe after 30s) and a token
// bucket capping reconnect attempts at 1 every 2 seconds with a burst
// of 3.
func NewWebSocketFeed(url string) *WebSocketFeed {
	settings := gobreaker.Settings{
		Name:        "feed-" + url,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("feed", name).Str("from", from.String()).Str("to", to.String()).Msg("feed circuit breaker state change")
		},
	}

	return &WebSocketFeed{
		url:     url,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
		bars:    make(chan core.MarketData, 256),
	}
}

// Bars returns the channel new bars are published on.
func (f *WebSocketFeed) Bars() <-chan core.MarketData { return f.bars }

// Run dials and reads until ctx is cancelled, reconnecting through the
// circuit breaker and rate limiter on every drop.
func (f *WebSocketFeed) Run(ctx context.Context) error {
	defer close(f.bars)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		_, err := f.breaker.Execute(func() (interface{}, error) {
			return nil, f.runOnce(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("url", f.url).Msg("feed connection dropped, retrying")
			continue
		}
		return nil
	}
}

func (f *WebSocketFeed) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.url, err)
		}

		var msg barMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Warn().Err(err).Msg("discarding malformed bar message")
			continue
		}

		bar := core.MarketData{
			Symbol:    msg.Symbol,
			Timestamp: time.Unix(msg.Timestamp, 0).UTC(),
			Open:      msg.Open,
			High:      msg.High,
			Low:       msg.Low,
			Close:     msg.Close,
			Volume:    msg.Volume,
			Bid:       msg.Bid,
			Ask:       msg.Ask,
		}

		select {
		case f.bars <- bar:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
