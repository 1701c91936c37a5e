package exchange

import (
	"errors"
	"time"
)

// ErrOrderRejected indicates the broker refused the order. The caller logs
// and skips the signal; rejection never aborts a trading cycle.
var ErrOrderRejected = errors.New("order rejected by broker")

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the closing side for this side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType distinguishes immediate fills from resting protective orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
)

// OrderStatus is the broker-side order state.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// OrderRequest describes a single order to place.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Type     OrderType
	Quantity int64
	// Price is the limit or stop trigger price; ignored for market orders.
	Price float64
}

// BracketRequest describes an entry with attached stop and target legs.
type BracketRequest struct {
	Symbol   string
	Side     Side
	Quantity int64
	Price    float64
	StopLoss float64
	Target   float64
}

// OrderHandle identifies the orders created by a placement.
type OrderHandle struct {
	OrderID     string
	StopOrderID string
}

// BrokerOrder is the broker's view of an order.
type BrokerOrder struct {
	ID          string
	Symbol      string
	Side        Side
	Type        OrderType
	Quantity    int64
	Price       float64
	FilledPrice float64
	Status      OrderStatus
	UpdatedAt   time.Time
}

// BrokerPosition is the broker's view of a net open position.
// Quantity is signed: positive long, negative short.
type BrokerPosition struct {
	Symbol    string
	Quantity  int64
	AvgPrice  float64
	LastPrice float64
}
