package risk

import "etf-arb-bot/internal/orders"

type Limits struct {
	PositionLimit     int64
	ActiveOrdersLimit int64
}

// Tracker holds the position and exposure ledger for the traded instrument.
//
// The two potential counters are projected positions, not plain volume sums:
// potentialBid is what the position becomes if every resting buy fills, and
// potentialAsk (a signed counter that runs negative when sell exposure is
// open) is what it becomes if every resting sell fills. Keeping them as
// projections means a fill only has to touch the counter for the opposite
// side: the filled lots move from the resting sum into the position, leaving
// the same-side projection unchanged. Immediate orders never enter either
// resting sum, so their fills adjust both counters.
//
// Counter mutations are integer lot arithmetic. Callers must release exactly
// what they reserved; the tracker does not re-check that at runtime.
type Tracker struct {
	limits Limits

	position     int64
	potentialBid int64
	potentialAsk int64
	activeOrders int64
}

func NewTracker(limits Limits) *Tracker {
	return &Tracker{limits: limits}
}

func (t *Tracker) Position() int64     { return t.position }
func (t *Tracker) PotentialBid() int64 { return t.potentialBid }
func (t *Tracker) PotentialAsk() int64 { return t.potentialAsk }
func (t *Tracker) ActiveOrders() int64 { return t.activeOrders }

// HasOrderHeadroom reports whether another order may go live at the venue.
func (t *Tracker) HasOrderHeadroom() bool {
	return t.activeOrders < t.limits.ActiveOrdersLimit
}

// BuyHeadroom is the volume a new resting buy may carry without the
// projected long position breaching the limit.
func (t *Tracker) BuyHeadroom() int64 {
	return t.limits.PositionLimit - t.potentialBid
}

// SellHeadroom is the volume a new resting sell may carry without the
// projected short position breaching the limit.
func (t *Tracker) SellHeadroom() int64 {
	return t.limits.PositionLimit + t.potentialAsk
}

// CanEnterBuy reports whether a resting buy of the given volume respects
// both the position and the active-order limits.
func (t *Tracker) CanEnterBuy(volume int64) bool {
	return volume > 0 && t.HasOrderHeadroom() && t.potentialBid+volume <= t.limits.PositionLimit
}

// CanEnterSell reports whether a resting sell of the given volume respects
// both the position and the active-order limits.
func (t *Tracker) CanEnterSell(volume int64) bool {
	return volume > 0 && t.HasOrderHeadroom() && t.potentialAsk-volume >= -t.limits.PositionLimit
}

// OnBuyInserted reserves bid exposure for a resting buy.
func (t *Tracker) OnBuyInserted(volume int64) {
	t.potentialBid += volume
	t.activeOrders++
}

// OnSellInserted reserves ask exposure for a resting sell.
func (t *Tracker) OnSellInserted(volume int64) {
	t.potentialAsk -= volume
	t.activeOrders++
}

// OnImmediateInserted counts an immediate order against the active-order
// limit. Immediate orders reserve no potential exposure.
func (t *Tracker) OnImmediateInserted() {
	t.activeOrders++
}

// OnOwnFill applies a fill to the position and to the opposite projection:
// a buy fill lifts both the position and the all-sells-fill projection, a
// sell fill lowers both the position and the all-buys-fill projection. The
// same-side projection is untouched for resting orders because the filled
// lots simply moved from its resting sum into the position.
func (t *Tracker) OnOwnFill(side orders.Side, volume int64) {
	if side == orders.Buy {
		t.position += volume
		t.potentialAsk += volume
	} else {
		t.position -= volume
		t.potentialBid -= volume
	}
}

// OnRestingFilled releases the order-count slot of a fully filled resting
// order. Its exposure now lives in the position, so no counter is released.
func (t *Tracker) OnRestingFilled() {
	t.activeOrders--
}

// OnCancelOrTerminal releases the exposure still reserved by a resting order
// that was cancelled or rejected. volume must be the order record's current
// (unfilled) volume, not the message-reported remaining volume.
func (t *Tracker) OnCancelOrTerminal(side orders.Side, volume int64) {
	if side == orders.Buy {
		t.potentialBid -= volume
	} else {
		t.potentialAsk += volume
	}
	t.activeOrders--
}

// OnImmediateDone settles a terminal immediate order: the filled lots joined
// the position, so the same-side projection catches up by the fill volume,
// and the order-count slot is released.
func (t *Tracker) OnImmediateDone(side orders.Side, fillVolume int64) {
	if side == orders.Buy {
		t.potentialBid += fillVolume
	} else {
		t.potentialAsk -= fillVolume
	}
	t.activeOrders--
}
