package engine

import "etf-arb-bot/internal/config"

// Params are the venue constants the engine trades against. MinBidTick and
// MaxAskTick are the venue's price band rounded onto the tick grid; they are
// computed once at startup and double as the resting prices for aggressive
// hedge orders.
type Params struct {
	MaxLotSize        int64
	PositionLimit     int64
	TickSize          int64
	ActiveOrdersLimit int64
	Threshold         float64
	MinBidTick        int64
	MaxAskTick        int64
}

func ParamsFromConfig(cfg config.TradingConfig) Params {
	return Params{
		MaxLotSize:        cfg.MaxLotSize,
		PositionLimit:     cfg.PositionLimit,
		TickSize:          cfg.TickSize,
		ActiveOrdersLimit: cfg.ActiveOrdersLimit,
		Threshold:         cfg.Threshold,
		MinBidTick:        (cfg.MinimumBid + cfg.TickSize) / cfg.TickSize * cfg.TickSize,
		MaxAskTick:        cfg.MaximumAsk / cfg.TickSize * cfg.TickSize,
	}
}

// ClampBid floors a buy price onto the lowest valid tick.
func (p Params) ClampBid(price int64) int64 {
	if price < p.MinBidTick {
		return p.MinBidTick
	}
	return price
}

// ClampAsk caps a sell price onto the highest valid tick.
func (p Params) ClampAsk(price int64) int64 {
	if price > p.MaxAskTick {
		return p.MaxAskTick
	}
	return price
}
