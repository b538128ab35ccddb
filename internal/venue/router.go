package venue

import (
	"fmt"

	"etf-arb-bot/internal/book"
	"etf-arb-bot/internal/engine"

	"go.uber.org/zap"
)

// Router decodes inbound gateway frames and drives the trader's handlers.
// It must only be called from the dispatch goroutine: the trader relies on
// strictly serialized event delivery.
type Router struct {
	trader    *engine.Trader
	log       *zap.Logger
	errorHook func(orderID uint64, message string)
}

func NewRouter(trader *engine.Trader, log *zap.Logger) *Router {
	return &Router{trader: trader, log: log}
}

// SetErrorHook registers a callback for order-specific venue errors, used
// for operator alerting. Must be set before dispatch starts.
func (r *Router) SetErrorHook(fn func(orderID uint64, message string)) {
	r.errorHook = fn
}

// HandleMessage dispatches one frame and returns its type tag.
func (r *Router) HandleMessage(data []byte) (string, error) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return "", err
	}
	switch env.Type {
	case TypeOrderBook:
		var msg BookMsg
		if err := decodePayload(env, &msg); err != nil {
			return env.Type, err
		}
		asks, bids := zipLevels(msg)
		r.trader.OnOrderBook(book.Instrument(msg.Instrument), msg.Sequence, asks, bids)
	case TypeTradeTicks:
		var msg BookMsg
		if err := decodePayload(env, &msg); err != nil {
			return env.Type, err
		}
		asks, bids := zipLevels(msg)
		r.trader.OnTradeTicks(book.Instrument(msg.Instrument), msg.Sequence, asks, bids)
	case TypeOrderFilled:
		var msg OrderFilledMsg
		if err := decodePayload(env, &msg); err != nil {
			return env.Type, err
		}
		r.trader.OnOrderFilled(msg.OrderID, msg.Price, msg.Volume)
	case TypeOrderStatus:
		var msg OrderStatusMsg
		if err := decodePayload(env, &msg); err != nil {
			return env.Type, err
		}
		r.trader.OnOrderStatus(msg.OrderID, msg.FillVolume, msg.RemainingVolume, msg.Fees)
	case TypeHedgeFilled:
		var msg HedgeFilledMsg
		if err := decodePayload(env, &msg); err != nil {
			return env.Type, err
		}
		r.trader.OnHedgeFilled(msg.OrderID, msg.Price, msg.Volume)
	case TypeError:
		var msg ErrorMsg
		if err := decodePayload(env, &msg); err != nil {
			return env.Type, err
		}
		r.trader.OnError(msg.OrderID, msg.Message)
		if msg.OrderID != 0 && r.errorHook != nil {
			r.errorHook(msg.OrderID, msg.Message)
		}
	case TypePing:
		// keepalive echo from the gateway
	default:
		return env.Type, fmt.Errorf("unknown frame type %q", env.Type)
	}
	return env.Type, nil
}

func zipLevels(msg BookMsg) (asks, bids [book.TopLevelCount]book.PriceLevel) {
	for i := 0; i < book.TopLevelCount; i++ {
		asks[i] = book.PriceLevel{Price: msg.AskPrices[i], Volume: msg.AskVolumes[i]}
		bids[i] = book.PriceLevel{Price: msg.BidPrices[i], Volume: msg.BidVolumes[i]}
	}
	return asks, bids
}
