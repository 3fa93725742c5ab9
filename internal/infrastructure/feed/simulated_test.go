package feed

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimulatedFeedEmitsBarsForEverySymbol(t *testing.T) {
	f := NewSimulatedFeed([]string{"BTC", "ETH"}, 5*time.Millisecond, rand.New(rand.NewSource(1)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	seen := map[string]int{}
	for bar := range f.Bars() {
		seen[bar.Symbol]++
	}
	<-done

	assert.Greater(t, seen["BTC"], 0)
	assert.Greater(t, seen["ETH"], 0)
}

func TestSimulatedFeedStopsOnCancelledContext(t *testing.T) {
	f := NewSimulatedFeed([]string{"BTC"}, time.Millisecond, rand.New(rand.NewSource(2)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Run(ctx)
	assert.Error(t, err)
}
