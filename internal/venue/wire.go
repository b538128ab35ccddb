package venue

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Gateway frames are msgpack envelopes: a type tag plus a typed payload.
// JSON tags are carried as well so replay logs stay human-editable.

const (
	TypeLogin       = "login"
	TypePing        = "ping"
	TypeOrderBook   = "order_book"
	TypeTradeTicks  = "trade_ticks"
	TypeOrderFilled = "order_filled"
	TypeOrderStatus = "order_status"
	TypeHedgeFilled = "hedge_filled"
	TypeError       = "error"
	TypeInsertOrder = "insert_order"
	TypeCancelOrder = "cancel_order"
	TypeHedgeOrder  = "hedge_order"
)

type Envelope struct {
	Type string             `msgpack:"type" json:"type"`
	Data msgpack.RawMessage `msgpack:"data" json:"-"`
}

type LoginMsg struct {
	Token string `msgpack:"token" json:"token"`
}

type BookMsg struct {
	Instrument int      `msgpack:"instrument" json:"instrument"`
	Sequence   uint64   `msgpack:"sequence" json:"sequence"`
	AskPrices  [5]int64 `msgpack:"ask_prices" json:"ask_prices"`
	AskVolumes [5]int64 `msgpack:"ask_volumes" json:"ask_volumes"`
	BidPrices  [5]int64 `msgpack:"bid_prices" json:"bid_prices"`
	BidVolumes [5]int64 `msgpack:"bid_volumes" json:"bid_volumes"`
}

type OrderFilledMsg struct {
	OrderID uint64 `msgpack:"order_id" json:"order_id"`
	Price   int64  `msgpack:"price" json:"price"`
	Volume  int64  `msgpack:"volume" json:"volume"`
}

type OrderStatusMsg struct {
	OrderID         uint64 `msgpack:"order_id" json:"order_id"`
	FillVolume      int64  `msgpack:"fill_volume" json:"fill_volume"`
	RemainingVolume int64  `msgpack:"remaining_volume" json:"remaining_volume"`
	Fees            int64  `msgpack:"fees" json:"fees"`
}

type HedgeFilledMsg struct {
	OrderID uint64 `msgpack:"order_id" json:"order_id"`
	Price   int64  `msgpack:"price" json:"price"`
	Volume  int64  `msgpack:"volume" json:"volume"`
}

type ErrorMsg struct {
	OrderID uint64 `msgpack:"order_id" json:"order_id"`
	Message string `msgpack:"message" json:"message"`
}

type InsertOrderMsg struct {
	OrderID  uint64 `msgpack:"order_id" json:"order_id"`
	Side     string `msgpack:"side" json:"side"`
	Price    int64  `msgpack:"price" json:"price"`
	Volume   int64  `msgpack:"volume" json:"volume"`
	Lifespan string `msgpack:"lifespan" json:"lifespan"`
}

type CancelOrderMsg struct {
	OrderID uint64 `msgpack:"order_id" json:"order_id"`
}

type HedgeOrderMsg struct {
	OrderID uint64 `msgpack:"order_id" json:"order_id"`
	Side    string `msgpack:"side" json:"side"`
	Price   int64  `msgpack:"price" json:"price"`
	Volume  int64  `msgpack:"volume" json:"volume"`
}

// EncodeFrame wraps a typed payload in an envelope and marshals the whole
// frame.
func EncodeFrame(frameType string, payload interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", frameType, err)
	}
	frame, err := msgpack.Marshal(Envelope{Type: frameType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", frameType, err)
	}
	return frame, nil
}

// PingFrame returns the keepalive frame sent on idle connections.
func PingFrame() []byte {
	frame, err := EncodeFrame(TypePing, struct{}{})
	if err != nil {
		return nil
	}
	return frame
}

// DecodeEnvelope unwraps the outer frame; the payload stays raw for the
// router to decode by type.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	return env, nil
}

func decodePayload(env Envelope, v interface{}) error {
	if err := msgpack.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}
