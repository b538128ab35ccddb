package orders

import "testing"

func TestNextIDMonotonic(t *testing.T) {
	b := NewBook()
	first := b.NextID()
	second := b.NextID()
	if first != 1 || second != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", first, second)
	}
}

func TestTrackAndOutstandingSets(t *testing.T) {
	b := NewBook()
	bid := b.Track(Order{ID: b.NextID(), Side: Buy, Price: 10000, Volume: 25, Lifespan: Resting})
	ask := b.Track(Order{ID: b.NextID(), Side: Sell, Price: 10200, Volume: 10, Lifespan: Resting})

	if bid.State != StateWorking || bid.Original != 25 {
		t.Fatalf("expected working order with original 25, got %+v", bid)
	}
	if got := b.BidIDs(); len(got) != 1 || got[0] != bid.ID {
		t.Fatalf("expected bid set [%d], got %v", bid.ID, got)
	}
	if got := b.AskIDs(); len(got) != 1 || got[0] != ask.ID {
		t.Fatalf("expected ask set [%d], got %v", ask.ID, got)
	}
	if b.ActiveCount() != 2 {
		t.Fatalf("expected 2 active, got %d", b.ActiveCount())
	}
}

func TestAmendReducesRemaining(t *testing.T) {
	b := NewBook()
	o := b.Track(Order{ID: b.NextID(), Side: Buy, Price: 10000, Volume: 25, Lifespan: Resting})
	amended, ok := b.Amend(o.ID, 10)
	if !ok {
		t.Fatalf("expected amend to find order")
	}
	if amended.Volume != 15 || amended.Original != 25 {
		t.Fatalf("expected remaining 15 original 25, got %+v", amended)
	}
	if amended.State != StatePartiallyFilled {
		t.Fatalf("expected partially filled, got %s", amended.State)
	}
}

func TestRetireIsTerminalAndIdempotent(t *testing.T) {
	b := NewBook()
	o := b.Track(Order{ID: b.NextID(), Side: Buy, Price: 10000, Volume: 25, Lifespan: Resting})

	retired, ok := b.Retire(o.ID, StateCancelled)
	if !ok || retired.State != StateCancelled {
		t.Fatalf("expected cancelled order, got %+v ok=%v", retired, ok)
	}
	if b.Outstanding(o.ID) {
		t.Fatalf("retired order must leave the outstanding set")
	}
	if b.ActiveCount() != 0 {
		t.Fatalf("expected 0 active, got %d", b.ActiveCount())
	}
	if _, ok := b.Retire(o.ID, StateRejected); ok {
		t.Fatalf("retiring a terminal order must be a no-op")
	}
	if term, ok := b.Terminal(o.ID); !ok || term.State != StateCancelled {
		t.Fatalf("terminal state must not be resurrected, got %+v ok=%v", term, ok)
	}
}

func TestRetireRejectsNonTerminalState(t *testing.T) {
	b := NewBook()
	o := b.Track(Order{ID: b.NextID(), Side: Sell, Price: 10200, Volume: 5, Lifespan: Resting})
	if _, ok := b.Retire(o.ID, StateWorking); ok {
		t.Fatalf("working is not a terminal state")
	}
	if !b.Outstanding(o.ID) {
		t.Fatalf("order must stay outstanding after invalid retire")
	}
}

func TestTerminalRetentionBounded(t *testing.T) {
	b := NewBook()
	var first uint64
	for i := 0; i < terminalRetention+1; i++ {
		o := b.Track(Order{ID: b.NextID(), Side: Buy, Price: 10000, Volume: 1, Lifespan: Resting})
		if i == 0 {
			first = o.ID
		}
		b.Retire(o.ID, StateFilled)
	}
	if _, ok := b.Terminal(first); ok {
		t.Fatalf("oldest terminal record should be evicted")
	}
	last := uint64(terminalRetention + 1)
	if _, ok := b.Terminal(last); !ok {
		t.Fatalf("newest terminal record should be retained")
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateFilled, StateCancelled, StateRejected} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StateWorking, StatePartiallyFilled} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
