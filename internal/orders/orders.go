package orders

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Opposite returns the other side, used to size hedges against fills.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type Lifespan int

const (
	// Resting orders stay on the book until filled or cancelled.
	Resting Lifespan = iota
	// Immediate orders execute what they can and the remainder is killed.
	Immediate
)

func (l Lifespan) String() string {
	if l == Immediate {
		return "IMMEDIATE"
	}
	return "RESTING"
}

type State string

const (
	StateWorking         State = "WORKING"
	StatePartiallyFilled State = "PARTIALLY_FILLED"
	StateFilled          State = "FILLED"
	StateCancelled       State = "CANCELLED"
	StateRejected        State = "REJECTED"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateFilled, StateCancelled, StateRejected:
		return true
	}
	return false
}

// Order is a single lifecycle-managed venue order. Volume is the remaining
// unfilled volume; it is amended down by partial fills. Original is the
// volume at insertion and never changes.
type Order struct {
	ID       uint64
	Side     Side
	Price    int64
	Volume   int64
	Original int64
	Lifespan Lifespan
	State    State
}
