package book

// TopLevelCount is the number of price levels the venue reports per side.
const TopLevelCount = 5

type Instrument int

const (
	InstrumentETF Instrument = iota
	InstrumentFuture
	instrumentCount
)

func (i Instrument) String() string {
	switch i {
	case InstrumentETF:
		return "ETF"
	case InstrumentFuture:
		return "FUTURE"
	default:
		return "UNKNOWN"
	}
}

func (i Instrument) Valid() bool {
	return i >= 0 && i < instrumentCount
}

type PriceLevel struct {
	Price  int64
	Volume int64
}

type sideBook struct {
	bids [TopLevelCount]PriceLevel
	asks [TopLevelCount]PriceLevel
	seq  uint64
	seen bool
}

// Cache stores the latest top-of-book snapshot per instrument. Last write
// wins; out-of-order or missed updates are overwritten, never queued. The
// cache is owned by the dispatch goroutine and is not safe for concurrent
// use.
type Cache struct {
	books [instrumentCount]sideBook
}

func NewCache() *Cache {
	return &Cache{}
}

// Update replaces the stored snapshot for the instrument unconditionally.
func (c *Cache) Update(inst Instrument, seq uint64, asks, bids [TopLevelCount]PriceLevel) {
	if !inst.Valid() {
		return
	}
	b := &c.books[inst]
	b.asks = asks
	b.bids = bids
	b.seq = seq
	b.seen = true
}

// Seen reports whether the instrument has received at least one update.
func (c *Cache) Seen(inst Instrument) bool {
	return inst.Valid() && c.books[inst].seen
}

func (c *Cache) Sequence(inst Instrument) uint64 {
	if !inst.Valid() {
		return 0
	}
	return c.books[inst].seq
}

// BestBid returns the top bid level. ok is false if the instrument has never
// been updated.
func (c *Cache) BestBid(inst Instrument) (PriceLevel, bool) {
	if !c.Seen(inst) {
		return PriceLevel{}, false
	}
	return c.books[inst].bids[0], true
}

// BestAsk returns the top ask level. ok is false if the instrument has never
// been updated.
func (c *Cache) BestAsk(inst Instrument) (PriceLevel, bool) {
	if !c.Seen(inst) {
		return PriceLevel{}, false
	}
	return c.books[inst].asks[0], true
}

// BestBidPrice returns the top bid price, or zero when the instrument has
// never been updated or the level is empty.
func (c *Cache) BestBidPrice(inst Instrument) int64 {
	level, ok := c.BestBid(inst)
	if !ok {
		return 0
	}
	return level.Price
}

// BestAskPrice returns the top ask price, or zero when the instrument has
// never been updated or the level is empty.
func (c *Cache) BestAskPrice(inst Instrument) int64 {
	level, ok := c.BestAsk(inst)
	if !ok {
		return 0
	}
	return level.Price
}
