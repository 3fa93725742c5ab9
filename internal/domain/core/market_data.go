package core

import "time"

// MarketData is a point-in-time OHLCV bar with optional best bid/ask.
type MarketData struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Bid       float64
	Ask       float64
	BidSize   float64
	AskSize   float64
}

// MidPrice is (bid+ask)/2 when both quotes are present, else Close.
func (m MarketData) MidPrice() float64 {
	if m.Bid > 0 && m.Ask > 0 {
		return (m.Bid + m.Ask) / 2
	}
	return m.Close
}

// Spread is Ask-Bid, or 0 when either side is missing.
func (m MarketData) Spread() float64 {
	if m.Bid > 0 && m.Ask > 0 {
		return m.Ask - m.Bid
	}
	return 0
}

// SpreadBps is the spread expressed in basis points of mid price.
func (m MarketData) SpreadBps() float64 {
	mid := m.MidPrice()
	if mid <= 0 {
		return 0
	}
	return m.Spread() / mid * 10000
}

// FeatureSet is a symbol + timestamp snapshot of name->value features.
// Every feature is derivable only from bars up to and including
// Timestamp; consumers never reach into the underlying buffer.
type FeatureSet struct {
	Symbol    string
	Timestamp time.Time
	Features  map[string]float64
}

// Get returns the named feature or def if absent.
func (f FeatureSet) Get(name string, def float64) float64 {
	if v, ok := f.Features[name]; ok {
		return v
	}
	return def
}

// Has reports whether the named feature is present.
func (f FeatureSet) Has(name string) bool {
	_, ok := f.Features[name]
	return ok
}
