package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderSide is the direction of a trade order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType enumerates the supported order mechanics.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
	OrderTypeTWAP      OrderType = "twap"
	OrderTypeVWAP      OrderType = "vwap"
)

// OrderStatus tracks an order through its lifecycle:
// pending -> submitted -> (partial -> partial*) -> filled | cancelled | rejected.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
)

// TradeOrder is immutable after construction. Quantity is unsigned;
// direction is carried by Side.
type TradeOrder struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Quantity      float64
	LimitPrice    *float64
	StopPrice     *float64
	TimeInForce   string
	ClientOrderID string
	Metadata      map[string]string
	CreatedAt     time.Time
}

// NewTradeOrder assigns a unique ClientOrderID and CreatedAt at
// construction; neither mutates afterward.
func NewTradeOrder(symbol string, side OrderSide, typ OrderType, quantity float64, now time.Time) TradeOrder {
	return TradeOrder{
		Symbol:        symbol,
		Side:          side,
		Type:          typ,
		Quantity:      quantity,
		TimeInForce:   "day",
		ClientOrderID: fmt.Sprintf("ord_%d_%s", now.UnixNano(), uuid.NewString()[:8]),
		Metadata:      map[string]string{},
		CreatedAt:     now,
	}
}
