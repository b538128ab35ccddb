package orders

import "sort"

// terminalRetention bounds how many terminal records are kept for the audit
// window. Oldest records are evicted first.
const terminalRetention = 256

// Book owns every outstanding order and a bounded window of terminal ones.
// Order ids are unique for the life of the process and monotonically
// assigned. The book is owned by the dispatch goroutine and is not safe for
// concurrent use.
type Book struct {
	nextID uint64

	live map[uint64]*Order
	bids map[uint64]struct{}
	asks map[uint64]struct{}

	terminal     map[uint64]*Order
	terminalSeen []uint64
}

func NewBook() *Book {
	return &Book{
		live:     make(map[uint64]*Order),
		bids:     make(map[uint64]struct{}),
		asks:     make(map[uint64]struct{}),
		terminal: make(map[uint64]*Order),
	}
}

// NextID returns the next order id. Ids are shared between orders and hedges
// so every outbound action carries a process-unique id.
func (b *Book) NextID() uint64 {
	b.nextID++
	return b.nextID
}

// Track registers a freshly inserted order as Working and places it in the
// outstanding set for its side.
func (b *Book) Track(o Order) *Order {
	o.Original = o.Volume
	o.State = StateWorking
	tracked := &o
	b.live[o.ID] = tracked
	if o.Side == Buy {
		b.bids[o.ID] = struct{}{}
	} else {
		b.asks[o.ID] = struct{}{}
	}
	return tracked
}

// Get returns the outstanding order for id, if any.
func (b *Book) Get(id uint64) (*Order, bool) {
	o, ok := b.live[id]
	return o, ok
}

// Outstanding reports whether id refers to a non-terminal order.
func (b *Book) Outstanding(id uint64) bool {
	_, ok := b.live[id]
	return ok
}

// ActiveCount is the number of orders in a non-terminal state.
func (b *Book) ActiveCount() int {
	return len(b.live)
}

// BidIDs returns the outstanding buy order ids in ascending order.
func (b *Book) BidIDs() []uint64 {
	return sortedIDs(b.bids)
}

// AskIDs returns the outstanding sell order ids in ascending order.
func (b *Book) AskIDs() []uint64 {
	return sortedIDs(b.asks)
}

func sortedIDs(set map[uint64]struct{}) []uint64 {
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Amend reduces the remaining volume of an outstanding order by the fill
// volume and marks it partially filled.
func (b *Book) Amend(id uint64, fill int64) (*Order, bool) {
	o, ok := b.live[id]
	if !ok {
		return nil, false
	}
	o.Volume -= fill
	o.State = StatePartiallyFilled
	return o, true
}

// Retire moves an outstanding order into the given terminal state and out of
// the outstanding sets. Retiring an unknown or already-terminal id is a
// no-op.
func (b *Book) Retire(id uint64, state State) (*Order, bool) {
	if !state.Terminal() {
		return nil, false
	}
	o, ok := b.live[id]
	if !ok {
		return nil, false
	}
	delete(b.live, id)
	delete(b.bids, id)
	delete(b.asks, id)
	o.State = state
	b.retain(o)
	return o, true
}

// Terminal looks up a retired order still inside the retention window.
func (b *Book) Terminal(id uint64) (*Order, bool) {
	o, ok := b.terminal[id]
	return o, ok
}

func (b *Book) retain(o *Order) {
	b.terminal[o.ID] = o
	b.terminalSeen = append(b.terminalSeen, o.ID)
	for len(b.terminalSeen) > terminalRetention {
		evict := b.terminalSeen[0]
		b.terminalSeen = b.terminalSeen[1:]
		delete(b.terminal, evict)
	}
}
