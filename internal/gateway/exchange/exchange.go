// Package exchange defines the broker capability boundary. The trading core
// depends on these interfaces only; concrete brokers live in sibling packages.
package exchange

import "context"

// Broker is the minimal order/position surface the position lifecycle needs.
// Implementations must be safe for concurrent use.
type Broker interface {
	// PlaceOrder submits a single order. Returns ErrOrderRejected (possibly
	// wrapped) when the broker refuses it.
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error)
	// PlaceBracketOrder submits an entry with protective stop and target legs.
	PlaceBracketOrder(ctx context.Context, req BracketRequest) (*OrderHandle, error)
	// CancelOrder cancels an open order; ok=false when it was not open.
	CancelOrder(ctx context.Context, orderID string) (bool, error)
	// OpenPositions returns all net open positions.
	OpenPositions(ctx context.Context) ([]BrokerPosition, error)
	// Orders returns today's orders, most recent last.
	Orders(ctx context.Context) ([]BrokerOrder, error)
}
