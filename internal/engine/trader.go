package engine

import (
	"etf-arb-bot/internal/book"
	"etf-arb-bot/internal/journal"
	"etf-arb-bot/internal/metrics"
	"etf-arb-bot/internal/orders"
	"etf-arb-bot/internal/risk"

	"go.uber.org/zap"
)

// Gateway is the outbound half of the venue adapter. Calls are
// fire-and-forget: outcomes arrive later as fill, status or error events.
type Gateway interface {
	InsertOrder(id uint64, side orders.Side, price, volume int64, lifespan orders.Lifespan)
	CancelOrder(id uint64)
	SendHedge(id uint64, side orders.Side, price, volume int64)
}

// Trader is the decision core. It owns the book cache, the order book and
// the risk ledger, and turns inbound venue events into order actions.
//
// All methods must be called from a single dispatch goroutine; events are
// processed to completion, one at a time, and no state is shared outside it.
type Trader struct {
	params  Params
	gateway Gateway
	log     *zap.Logger

	books  *book.Cache
	orders *orders.Book
	risk   *risk.Tracker
	hedger *Hedger

	journal journal.Recorder
	metrics *metrics.Metrics
}

func New(params Params, gateway Gateway, log *zap.Logger) *Trader {
	m := metrics.NewNoop()
	return &Trader{
		params:  params,
		gateway: gateway,
		log:     log,
		books:   book.NewCache(),
		orders:  orders.NewBook(),
		risk: risk.NewTracker(risk.Limits{
			PositionLimit:     params.PositionLimit,
			ActiveOrdersLimit: params.ActiveOrdersLimit,
		}),
		hedger:  NewHedger(params, gateway, m, log),
		journal: journal.NewNop(),
		metrics: m,
	}
}

func (t *Trader) SetJournal(j journal.Recorder) {
	if j != nil {
		t.journal = j
		t.hedger.journal = j
	}
}

func (t *Trader) SetMetrics(m *metrics.Metrics) {
	if m != nil {
		t.metrics = m
		t.hedger.metrics = m
	}
}

// Snapshot is a point-in-time view of the ledger and both books, taken for
// observability after a decision cycle.
type Snapshot struct {
	Position     int64
	PotentialBid int64
	PotentialAsk int64
	ActiveOrders int64
	ETFBid       int64
	ETFAsk       int64
	FutureBid    int64
	FutureAsk    int64
}

func (t *Trader) Snapshot() Snapshot {
	return Snapshot{
		Position:     t.risk.Position(),
		PotentialBid: t.risk.PotentialBid(),
		PotentialAsk: t.risk.PotentialAsk(),
		ActiveOrders: t.risk.ActiveOrders(),
		ETFBid:       t.books.BestBidPrice(book.InstrumentETF),
		ETFAsk:       t.books.BestAskPrice(book.InstrumentETF),
		FutureBid:    t.books.BestBidPrice(book.InstrumentFuture),
		FutureAsk:    t.books.BestAskPrice(book.InstrumentFuture),
	}
}

// OnOrderBook stores the snapshot and, for ETF updates, runs the decision
// cycle. Future updates only refresh the cache.
func (t *Trader) OnOrderBook(inst book.Instrument, seq uint64, asks, bids [book.TopLevelCount]book.PriceLevel) {
	if !inst.Valid() {
		t.log.Warn("order book for unknown instrument", zap.Int("instrument", int(inst)))
		return
	}
	t.log.Debug("order book",
		zap.String("instrument", inst.String()),
		zap.Uint64("sequence", seq),
		zap.Int64("best_bid", bids[0].Price),
		zap.Int64("best_ask", asks[0].Price),
	)
	t.books.Update(inst, seq, asks, bids)
	if inst == book.InstrumentETF {
		t.decide()
	}
}

// OnTradeTicks is observational only.
func (t *Trader) OnTradeTicks(inst book.Instrument, seq uint64, asks, bids [book.TopLevelCount]book.PriceLevel) {
	t.log.Debug("trade ticks",
		zap.String("instrument", inst.String()),
		zap.Uint64("sequence", seq),
		zap.Int64("best_bid", bids[0].Price),
		zap.Int64("best_ask", asks[0].Price),
	)
}

// decide runs the fixed-priority decision ladder: buy entry, sell entry,
// cancels, then opportunistic exit. Each step re-reads the ledger so earlier
// actions in the same cycle are visible to later ones.
func (t *Trader) decide() {
	etfBid := t.books.BestBidPrice(book.InstrumentETF)
	etfAsk := t.books.BestAskPrice(book.InstrumentETF)
	futBid := t.books.BestBidPrice(book.InstrumentFuture)
	futAsk := t.books.BestAskPrice(book.InstrumentFuture)

	buyPrice := etfBid + t.params.TickSize
	sellPrice := etfAsk - t.params.TickSize
	futureSeen := t.books.Seen(book.InstrumentFuture)

	if futureSeen && t.aboveThreshold(futBid-buyPrice, buyPrice) {
		volume := min64(t.params.MaxLotSize, t.risk.BuyHeadroom())
		if t.risk.CanEnterBuy(volume) {
			t.insertResting(orders.Buy, t.params.ClampBid(buyPrice), volume)
		}
	}
	if futureSeen && t.aboveThreshold(sellPrice-futAsk, futAsk) {
		volume := min64(t.params.MaxLotSize, t.risk.SellHeadroom())
		if t.risk.CanEnterSell(volume) {
			t.insertResting(orders.Sell, t.params.ClampAsk(sellPrice), volume)
		}
	}

	// A side whose edge has gone is cleared entirely. Cancels are idempotent;
	// the venue confirms via a status event.
	if !t.aboveThreshold(futBid-buyPrice, buyPrice) {
		t.cancelAll(t.orders.BidIDs())
	}
	if !t.aboveThreshold(sellPrice-futAsk, futAsk) {
		t.cancelAll(t.orders.AskIDs())
	}

	// Unwind any position the moment the ETF can be traded out profitably
	// against the future. This path ignores the entry threshold and only
	// re-checks the order-count limit, which earlier steps may have consumed.
	position := t.risk.Position()
	if position > 0 && etfBid > futAsk && t.risk.HasOrderHeadroom() {
		t.insertImmediate(orders.Sell, etfBid, position)
	} else if position < 0 && futBid > etfAsk && t.risk.HasOrderHeadroom() {
		t.insertImmediate(orders.Buy, etfAsk, -position)
	}
}

// aboveThreshold reports whether the edge clears the relative threshold of
// the reference price.
func (t *Trader) aboveThreshold(edge, reference int64) bool {
	return float64(edge) >= t.params.Threshold*float64(reference)
}

func (t *Trader) insertResting(side orders.Side, price, volume int64) {
	id := t.orders.NextID()
	t.gateway.InsertOrder(id, side, price, volume, orders.Resting)
	o := t.orders.Track(orders.Order{ID: id, Side: side, Price: price, Volume: volume, Lifespan: orders.Resting})
	if side == orders.Buy {
		t.risk.OnBuyInserted(volume)
	} else {
		t.risk.OnSellInserted(volume)
	}
	t.metrics.OrdersInserted.Inc()
	t.record(t.journal.OrderInserted(*o))
	t.log.Info("resting order inserted",
		zap.Uint64("order_id", id),
		zap.String("side", side.String()),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
	)
}

func (t *Trader) insertImmediate(side orders.Side, price, volume int64) {
	id := t.orders.NextID()
	t.gateway.InsertOrder(id, side, price, volume, orders.Immediate)
	o := t.orders.Track(orders.Order{ID: id, Side: side, Price: price, Volume: volume, Lifespan: orders.Immediate})
	t.risk.OnImmediateInserted()
	t.metrics.OrdersInserted.Inc()
	t.record(t.journal.OrderInserted(*o))
	t.log.Info("exit order inserted",
		zap.Uint64("order_id", id),
		zap.String("side", side.String()),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
	)
}

func (t *Trader) cancelAll(ids []uint64) {
	for _, id := range ids {
		t.gateway.CancelOrder(id)
		t.metrics.OrdersCancelled.Inc()
		t.log.Debug("cancel sent", zap.Uint64("order_id", id))
	}
}

// OnOrderFilled reconciles an own-order fill: the position and the mirror
// exposure move, the fill is hedged, and the order advances through its
// lifecycle. Immediate orders are terminal on their first fill.
func (t *Trader) OnOrderFilled(orderID uint64, price, volume int64) {
	o, ok := t.orders.Get(orderID)
	if !ok {
		t.log.Warn("fill for unknown order", zap.Uint64("order_id", orderID), zap.Int64("volume", volume))
		return
	}
	t.log.Info("order filled",
		zap.Uint64("order_id", orderID),
		zap.String("side", o.Side.String()),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
	)
	t.risk.OnOwnFill(o.Side, volume)
	t.hedger.HedgeFill(t.orders.NextID(), o.Side, volume)
	t.metrics.OwnFills.Inc()
	t.record(t.journal.OwnFill(orderID, o.Side, price, volume))

	switch {
	case o.Lifespan == orders.Immediate:
		t.risk.OnImmediateDone(o.Side, volume)
		retired, _ := t.orders.Retire(orderID, orders.StateFilled)
		t.record(t.journal.OrderTerminal(*retired))
	case volume == o.Volume:
		t.risk.OnRestingFilled()
		retired, _ := t.orders.Retire(orderID, orders.StateFilled)
		t.record(t.journal.OrderTerminal(*retired))
	default:
		t.orders.Amend(orderID, volume)
	}
}

// OnOrderStatus settles venue-confirmed cancellations. A zero remaining
// volume for a resting order means the venue dropped it; an immediate order
// still outstanding here never filled at all. Non-zero remaining volumes are
// progress reports and change nothing.
func (t *Trader) OnOrderStatus(orderID uint64, fillVolume, remainingVolume, fees int64) {
	o, ok := t.orders.Get(orderID)
	if !ok {
		t.log.Debug("status for unknown or settled order",
			zap.Uint64("order_id", orderID),
			zap.Int64("remaining", remainingVolume),
			zap.Int64("fees", fees),
		)
		return
	}
	if o.Lifespan == orders.Immediate {
		t.settle(o, fillVolume, orders.StateCancelled)
		return
	}
	if remainingVolume == 0 {
		t.settle(o, fillVolume, orders.StateCancelled)
	}
}

// OnError reconciles a venue-reported order error. A zero order id is not
// order-specific and is only logged. For a known outstanding order the same
// settlement path as a zero-remaining status runs, so reserved exposure and
// the order count are always released exactly once.
func (t *Trader) OnError(orderID uint64, message string) {
	t.log.Warn("venue error", zap.Uint64("order_id", orderID), zap.String("message", message))
	if orderID == 0 {
		return
	}
	o, ok := t.orders.Get(orderID)
	if !ok {
		return
	}
	t.metrics.OrderErrors.Inc()
	t.settle(o, 0, orders.StateRejected)
}

// OnHedgeFilled is logged only. Hedges are not lifecycle-managed and never
// trigger further hedging.
func (t *Trader) OnHedgeFilled(orderID uint64, price, volume int64) {
	t.metrics.HedgeFills.Inc()
	t.log.Info("hedge filled",
		zap.Uint64("order_id", orderID),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
	)
}

// settle retires an outstanding order into a terminal state and releases
// whatever it still holds against the ledger: resting orders release their
// remaining reserved exposure, immediate orders settle their filled lots
// into the same-side projection.
func (t *Trader) settle(o *orders.Order, fillVolume int64, state orders.State) {
	if o.Lifespan == orders.Immediate {
		t.risk.OnImmediateDone(o.Side, fillVolume)
	} else {
		t.risk.OnCancelOrTerminal(o.Side, o.Volume)
	}
	retired, _ := t.orders.Retire(o.ID, state)
	t.record(t.journal.OrderTerminal(*retired))
	t.log.Info("order settled",
		zap.Uint64("order_id", o.ID),
		zap.String("side", o.Side.String()),
		zap.String("state", string(state)),
	)
}

func (t *Trader) record(err error) {
	if err != nil {
		t.log.Warn("journal write failed", zap.Error(err))
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
