package engine

import (
	"testing"

	"etf-arb-bot/internal/book"
	"etf-arb-bot/internal/config"
	"etf-arb-bot/internal/orders"

	"go.uber.org/zap"
)

type action struct {
	kind     string
	id       uint64
	side     orders.Side
	price    int64
	volume   int64
	lifespan orders.Lifespan
}

type recordGateway struct {
	actions []action
}

func (g *recordGateway) InsertOrder(id uint64, side orders.Side, price, volume int64, lifespan orders.Lifespan) {
	g.actions = append(g.actions, action{kind: "insert", id: id, side: side, price: price, volume: volume, lifespan: lifespan})
}

func (g *recordGateway) CancelOrder(id uint64) {
	g.actions = append(g.actions, action{kind: "cancel", id: id})
}

func (g *recordGateway) SendHedge(id uint64, side orders.Side, price, volume int64) {
	g.actions = append(g.actions, action{kind: "hedge", id: id, side: side, price: price, volume: volume})
}

func (g *recordGateway) take() []action {
	out := g.actions
	g.actions = nil
	return out
}

func newTestTrader() (*Trader, *recordGateway) {
	gw := &recordGateway{}
	return New(ParamsFromConfig(config.Default().Trading), gw, zap.NewNop()), gw
}

func topOfBook(bid, ask int64) (asks, bids [book.TopLevelCount]book.PriceLevel) {
	asks[0] = book.PriceLevel{Price: ask, Volume: 50}
	bids[0] = book.PriceLevel{Price: bid, Volume: 50}
	return asks, bids
}

func updateFuture(t *Trader, bid, ask int64) {
	asks, bids := topOfBook(bid, ask)
	t.OnOrderBook(book.InstrumentFuture, 1, asks, bids)
}

func updateETF(t *Trader, bid, ask int64) {
	asks, bids := topOfBook(bid, ask)
	t.OnOrderBook(book.InstrumentETF, 1, asks, bids)
}

func checkLedgerMatchesBook(t *testing.T, tr *Trader) {
	t.Helper()
	if got, want := tr.risk.ActiveOrders(), int64(tr.orders.ActiveCount()); got != want {
		t.Fatalf("active order counter %d diverged from order book count %d", got, want)
	}
}

func TestBuyEntrySignal(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	if got := gw.take(); len(got) != 0 {
		t.Fatalf("future updates must not act, got %v", got)
	}
	updateETF(tr, 9900, 10300)

	got := gw.take()
	if len(got) != 1 {
		t.Fatalf("expected exactly one action, got %v", got)
	}
	want := action{kind: "insert", id: 1, side: orders.Buy, price: 10000, volume: 25, lifespan: orders.Resting}
	if got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got[0])
	}
	snap := tr.Snapshot()
	if snap.PotentialBid != 25 || snap.ActiveOrders != 1 {
		t.Fatalf("expected reserved exposure: %+v", snap)
	}
	checkLedgerMatchesBook(t, tr)
}

func TestSellEntrySignal(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 9000, 10200)
	updateETF(tr, 9000, 10400)

	got := gw.take()
	if len(got) != 1 {
		t.Fatalf("expected exactly one action, got %v", got)
	}
	want := action{kind: "insert", id: 1, side: orders.Sell, price: 10300, volume: 25, lifespan: orders.Resting}
	if got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got[0])
	}
	snap := tr.Snapshot()
	if snap.PotentialAsk != -25 || snap.ActiveOrders != 1 {
		t.Fatalf("expected reserved exposure: %+v", snap)
	}
}

func TestEntryThresholdBoundary(t *testing.T) {
	tr, gw := newTestTrader()
	// edge of 5 against a 10000 reference is exactly the threshold
	updateFuture(tr, 10005, 40000)
	updateETF(tr, 9900, 30000)
	if got := gw.take(); len(got) != 1 || got[0].kind != "insert" {
		t.Fatalf("edge equal to threshold must trade, got %v", got)
	}

	tr2, gw2 := newTestTrader()
	updateFuture(tr2, 10004, 40000)
	updateETF(tr2, 9900, 30000)
	if got := gw2.take(); len(got) != 0 {
		t.Fatalf("edge below threshold must not trade, got %v", got)
	}
}

func TestNoEntryWithoutFutureBook(t *testing.T) {
	tr, gw := newTestTrader()
	updateETF(tr, 9900, 10300)
	if got := gw.take(); len(got) != 0 {
		t.Fatalf("no future book means no signal, got %v", got)
	}
}

func TestCancelWhenEdgeGone(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	updateETF(tr, 9900, 10300)
	gw.take()

	updateFuture(tr, 10000, 10200)
	updateETF(tr, 9900, 10300)
	got := gw.take()
	if len(got) != 1 || got[0] != (action{kind: "cancel", id: 1}) {
		t.Fatalf("expected lone cancel of order 1, got %v", got)
	}

	// venue confirms with a zero-remaining status
	tr.OnOrderStatus(1, 0, 0, 0)
	snap := tr.Snapshot()
	if snap.PotentialBid != 0 || snap.ActiveOrders != 0 {
		t.Fatalf("cancel must release the full reservation: %+v", snap)
	}
	if term, ok := tr.orders.Terminal(1); !ok || term.State != orders.StateCancelled {
		t.Fatalf("expected cancelled terminal record, got %+v ok=%v", term, ok)
	}
	checkLedgerMatchesBook(t, tr)

	// a repeat update finds nothing left to cancel
	updateETF(tr, 9900, 10300)
	if got := gw.take(); len(got) != 0 {
		t.Fatalf("no outstanding orders means no actions, got %v", got)
	}
}

// Walks a resting buy through a partial fill, an edge loss, an opportunistic
// exit and the exit's own fill, checking the ledger returns to flat.
func TestPartialFillHedgeAndExit(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	updateETF(tr, 9900, 10300)
	gw.take() // resting buy id 1 at 10000 for 25

	tr.OnOrderFilled(1, 10000, 10)
	got := gw.take()
	if len(got) != 1 {
		t.Fatalf("expected exactly one hedge, got %v", got)
	}
	wantHedge := action{kind: "hedge", id: 2, side: orders.Sell, price: tr.params.MinBidTick, volume: 10}
	if got[0] != wantHedge {
		t.Fatalf("expected %+v, got %+v", wantHedge, got[0])
	}
	o, ok := tr.orders.Get(1)
	if !ok || o.State != orders.StatePartiallyFilled || o.Volume != 15 {
		t.Fatalf("expected partially filled with 15 remaining, got %+v ok=%v", o, ok)
	}
	snap := tr.Snapshot()
	if snap.Position != 10 || snap.PotentialBid != 25 || snap.PotentialAsk != 10 {
		t.Fatalf("unexpected ledger after fill: %+v", snap)
	}
	checkLedgerMatchesBook(t, tr)

	// the ETF now bids above the future ask: unwind
	updateFuture(tr, 10100, 10100)
	updateETF(tr, 10200, 10150)
	got = gw.take()
	if len(got) != 2 {
		t.Fatalf("expected cancel then exit insert, got %v", got)
	}
	if got[0] != (action{kind: "cancel", id: 1}) {
		t.Fatalf("expected cancel of the stale bid first, got %+v", got[0])
	}
	wantExit := action{kind: "insert", id: 3, side: orders.Sell, price: 10200, volume: 10, lifespan: orders.Immediate}
	if got[1] != wantExit {
		t.Fatalf("expected %+v, got %+v", wantExit, got[1])
	}

	tr.OnOrderStatus(1, 0, 0, 0)
	snap = tr.Snapshot()
	if snap.PotentialBid != 10 || snap.ActiveOrders != 1 {
		t.Fatalf("cancel must release only the unfilled lots: %+v", snap)
	}

	tr.OnOrderFilled(3, 10200, 10)
	got = gw.take()
	wantHedge = action{kind: "hedge", id: 4, side: orders.Buy, price: tr.params.MaxAskTick, volume: 10}
	if len(got) != 1 || got[0] != wantHedge {
		t.Fatalf("expected %+v, got %v", wantHedge, got)
	}
	snap = tr.Snapshot()
	if snap.Position != 0 || snap.PotentialBid != 0 || snap.PotentialAsk != 0 || snap.ActiveOrders != 0 {
		t.Fatalf("ledger must be flat after the unwind: %+v", snap)
	}
	if term, ok := tr.orders.Terminal(3); !ok || term.State != orders.StateFilled {
		t.Fatalf("exit order should be terminal filled, got %+v ok=%v", term, ok)
	}
	checkLedgerMatchesBook(t, tr)
}

func TestExitShortPosition(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 9000, 10200)
	updateETF(tr, 9000, 10400)
	gw.take() // resting sell id 1 at 10300 for 25

	tr.OnOrderFilled(1, 10300, 5)
	gw.take() // hedge buy id 2
	if snap := tr.Snapshot(); snap.Position != -5 {
		t.Fatalf("expected short 5, got %+v", snap)
	}

	// future bids through the ETF ask: buy the position back
	updateFuture(tr, 10200, 10300)
	updateETF(tr, 10150, 10100)
	got := gw.take()
	if len(got) != 2 {
		t.Fatalf("expected cancel then exit insert, got %v", got)
	}
	wantExit := action{kind: "insert", id: 3, side: orders.Buy, price: 10100, volume: 5, lifespan: orders.Immediate}
	if got[1] != wantExit {
		t.Fatalf("expected %+v, got %+v", wantExit, got[1])
	}
}

func TestExitRespectsOrderLimit(t *testing.T) {
	cfg := config.Default().Trading
	cfg.ActiveOrdersLimit = 1
	gw := &recordGateway{}
	tr := New(ParamsFromConfig(cfg), gw, zap.NewNop())

	updateFuture(tr, 10100, 10200)
	updateETF(tr, 9900, 10300)
	gw.take() // the single slot is taken by the resting buy
	tr.OnOrderFilled(1, 10000, 10)
	gw.take()

	updateFuture(tr, 10100, 10100)
	updateETF(tr, 10200, 10150)
	for _, a := range gw.take() {
		if a.kind == "insert" {
			t.Fatalf("exit must not breach the order limit, got %+v", a)
		}
	}
}

func TestOrderLimitCapsEntries(t *testing.T) {
	cfg := config.Default().Trading
	cfg.PositionLimit = 1000
	gw := &recordGateway{}
	tr := New(ParamsFromConfig(cfg), gw, zap.NewNop())

	updateFuture(tr, 10100, 10200)
	inserts := 0
	for i := 0; i < 6; i++ {
		updateETF(tr, 9900, 10400)
		for _, a := range gw.take() {
			if a.kind == "insert" {
				inserts++
			}
		}
	}
	if inserts != 10 {
		t.Fatalf("expected the order limit to cap entries at 10, got %d", inserts)
	}
	checkLedgerMatchesBook(t, tr)
}

func TestPositionLimitCapsBuyExposure(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	var volumes []int64
	for i := 0; i < 5; i++ {
		updateETF(tr, 9900, 10300)
		for _, a := range gw.take() {
			if a.kind == "insert" {
				volumes = append(volumes, a.volume)
			}
		}
	}
	if len(volumes) != 4 {
		t.Fatalf("expected 4 inserts before the position limit binds, got %v", volumes)
	}
	for _, v := range volumes {
		if v != 25 {
			t.Fatalf("expected 25-lot clips, got %v", volumes)
		}
	}
	if snap := tr.Snapshot(); snap.PotentialBid != 100 {
		t.Fatalf("expected bid projection at the limit, got %+v", snap)
	}
}

func TestFullFillRetiresRestingOrder(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	updateETF(tr, 9900, 10300)
	gw.take()

	tr.OnOrderFilled(1, 10000, 25)
	got := gw.take()
	if len(got) != 1 || got[0].kind != "hedge" || got[0].volume != 25 {
		t.Fatalf("expected a single 25-lot hedge, got %v", got)
	}
	if tr.orders.Outstanding(1) {
		t.Fatalf("fully filled order must leave the outstanding set")
	}
	if term, ok := tr.orders.Terminal(1); !ok || term.State != orders.StateFilled {
		t.Fatalf("expected filled terminal record, got %+v ok=%v", term, ok)
	}
	snap := tr.Snapshot()
	if snap.Position != 25 || snap.ActiveOrders != 0 {
		t.Fatalf("unexpected ledger after full fill: %+v", snap)
	}
	checkLedgerMatchesBook(t, tr)
}

func TestErrorSynthesizesRejection(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	updateETF(tr, 9900, 10300)
	gw.take()

	tr.OnError(1, "order rejected by venue")
	snap := tr.Snapshot()
	if snap.PotentialBid != 0 || snap.ActiveOrders != 0 {
		t.Fatalf("rejection must release the reservation: %+v", snap)
	}
	if term, ok := tr.orders.Terminal(1); !ok || term.State != orders.StateRejected {
		t.Fatalf("expected rejected terminal record, got %+v ok=%v", term, ok)
	}

	// terminal orders are settled exactly once
	tr.OnError(1, "order rejected by venue")
	tr.OnOrderStatus(1, 0, 0, 0)
	if snap2 := tr.Snapshot(); snap2 != snap {
		t.Fatalf("repeat events must not move the ledger: %+v vs %+v", snap2, snap)
	}
	if got := gw.take(); len(got) != 0 {
		t.Fatalf("settlement emits no actions, got %v", got)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	updateETF(tr, 9900, 10300)
	gw.take()
	before := tr.Snapshot()

	tr.OnError(0, "exchange level warning")
	tr.OnOrderFilled(99, 10000, 5)
	tr.OnOrderStatus(99, 0, 0, 0)
	tr.OnHedgeFilled(98, 100, 5)

	if after := tr.Snapshot(); after != before {
		t.Fatalf("unknown ids must not move the ledger: %+v vs %+v", after, before)
	}
	if got := gw.take(); len(got) != 0 {
		t.Fatalf("unknown ids emit no actions, got %v", got)
	}
	checkLedgerMatchesBook(t, tr)
}

func TestImmediateZeroFillStatus(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	updateETF(tr, 9900, 10300)
	gw.take()
	tr.OnOrderFilled(1, 10000, 10)
	gw.take()
	updateFuture(tr, 10100, 10100)
	updateETF(tr, 10200, 10150)
	gw.take() // cancel id 1, immediate sell id 3
	tr.OnOrderStatus(1, 0, 0, 0)

	// the exit missed: killed by the venue without trading
	tr.OnOrderStatus(3, 0, 0, 0)
	snap := tr.Snapshot()
	if snap.Position != 10 || snap.ActiveOrders != 0 {
		t.Fatalf("zero-fill kill must only release the order slot: %+v", snap)
	}
	if term, ok := tr.orders.Terminal(3); !ok || term.State != orders.StateCancelled {
		t.Fatalf("expected cancelled exit order, got %+v ok=%v", term, ok)
	}
	checkLedgerMatchesBook(t, tr)
}

func TestProgressStatusChangesNothing(t *testing.T) {
	tr, gw := newTestTrader()
	updateFuture(tr, 10100, 10200)
	updateETF(tr, 9900, 10300)
	gw.take()
	before := tr.Snapshot()

	tr.OnOrderStatus(1, 0, 25, 0)
	if after := tr.Snapshot(); after != before {
		t.Fatalf("progress report must not move the ledger: %+v vs %+v", after, before)
	}
	if !tr.orders.Outstanding(1) {
		t.Fatalf("order must stay outstanding on a progress report")
	}
}
