package journal

import "etf-arb-bot/internal/orders"

// Recorder is an append-only audit sink for the trading session. It is never
// read back by the engine; restarts begin from a clean slate.
type Recorder interface {
	OrderInserted(o orders.Order) error
	OrderTerminal(o orders.Order) error
	OwnFill(orderID uint64, side orders.Side, price, volume int64) error
	HedgeSent(orderID uint64, side orders.Side, price, volume int64) error
	Close() error
}

type nop struct{}

func (nop) OrderInserted(orders.Order) error                  { return nil }
func (nop) OrderTerminal(orders.Order) error                  { return nil }
func (nop) OwnFill(uint64, orders.Side, int64, int64) error   { return nil }
func (nop) HedgeSent(uint64, orders.Side, int64, int64) error { return nil }
func (nop) Close() error                                      { return nil }

func NewNop() Recorder {
	return nop{}
}

type tee []Recorder

// Tee fans every write out to all recorders. Each recorder sees every write;
// the first error wins.
func Tee(recorders ...Recorder) Recorder {
	return tee(recorders)
}

func (t tee) OrderInserted(o orders.Order) error {
	var first error
	for _, r := range t {
		if err := r.OrderInserted(o); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t tee) OrderTerminal(o orders.Order) error {
	var first error
	for _, r := range t {
		if err := r.OrderTerminal(o); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t tee) OwnFill(orderID uint64, side orders.Side, price, volume int64) error {
	var first error
	for _, r := range t {
		if err := r.OwnFill(orderID, side, price, volume); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t tee) HedgeSent(orderID uint64, side orders.Side, price, volume int64) error {
	var first error
	for _, r := range t {
		if err := r.HedgeSent(orderID, side, price, volume); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t tee) Close() error {
	var first error
	for _, r := range t {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
