package engine

import (
	"etf-arb-bot/internal/journal"
	"etf-arb-bot/internal/metrics"
	"etf-arb-bot/internal/orders"

	"go.uber.org/zap"
)

// Hedger neutralizes own-order fills with an opposing order on the future.
// Hedges are fire-and-forget: they are sized exactly to the fill, priced at
// the extreme valid tick so they trade like marketable orders, and their own
// fills are only logged, never hedged again.
type Hedger struct {
	params  Params
	gateway Gateway
	metrics *metrics.Metrics
	journal journal.Recorder
	log     *zap.Logger
}

func NewHedger(params Params, gateway Gateway, m *metrics.Metrics, log *zap.Logger) *Hedger {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Hedger{params: params, gateway: gateway, metrics: m, journal: journal.NewNop(), log: log}
}

// HedgeFill sends the hedge for a fill of the given side and volume. The id
// must come from the shared order id sequence.
func (h *Hedger) HedgeFill(id uint64, filledSide orders.Side, volume int64) {
	side := filledSide.Opposite()
	price := h.params.MinBidTick
	if side == orders.Buy {
		price = h.params.MaxAskTick
	}
	h.gateway.SendHedge(id, side, price, volume)
	h.metrics.HedgesSent.Inc()
	if err := h.journal.HedgeSent(id, side, price, volume); err != nil {
		h.log.Warn("journal write failed", zap.Error(err))
	}
	h.log.Info("hedge sent",
		zap.Uint64("order_id", id),
		zap.String("side", side.String()),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
	)
}
