package engine

import (
	"testing"

	"etf-arb-bot/internal/config"
)

func TestParamsFromConfig(t *testing.T) {
	p := ParamsFromConfig(config.Default().Trading)
	if p.MinBidTick != 100 {
		t.Fatalf("expected min bid tick 100, got %d", p.MinBidTick)
	}
	if p.MaxAskTick != 2147483600 {
		t.Fatalf("expected max ask tick 2147483600, got %d", p.MaxAskTick)
	}
}

func TestClamping(t *testing.T) {
	p := ParamsFromConfig(config.Default().Trading)
	if got := p.ClampBid(50); got != p.MinBidTick {
		t.Fatalf("expected bid floored to %d, got %d", p.MinBidTick, got)
	}
	if got := p.ClampBid(10000); got != 10000 {
		t.Fatalf("in-band bid must pass through, got %d", got)
	}
	if got := p.ClampAsk(p.MaxAskTick + 100); got != p.MaxAskTick {
		t.Fatalf("expected ask capped to %d, got %d", p.MaxAskTick, got)
	}
	if got := p.ClampAsk(10000); got != 10000 {
		t.Fatalf("in-band ask must pass through, got %d", got)
	}
}
