package market

import (
	"math/rand"
	"testing"
)

func newTestEngine(seed int64, events []Event) *Engine {
	return NewEngine(rand.New(rand.NewSource(seed)), events)
}

func TestInitialize(t *testing.T) {
	e := newTestEngine(1, nil)
	prices := e.Initialize([]string{"Red", "Blue", "Green"})
	if len(prices) != 3 {
		t.Fatalf("expected 3 prices, got %d", len(prices))
	}
	for name, price := range prices {
		if price != StartingPrice {
			t.Fatalf("%s started at %d, want %d", name, price, StartingPrice)
		}
	}
}

func TestAdvanceStaysWithinDriftBounds(t *testing.T) {
	e := newTestEngine(42, nil)
	prices := PriceTable{"Red": 100, "Blue": 100, "Green": 100}
	for i := 0; i < 500; i++ {
		next := e.Advance(prices)
		for name, price := range next {
			lo := int64(float64(prices[name]) * (1 - MaxDriftPct))
			hi := int64(float64(prices[name]) * (1 + MaxDriftPct))
			if lo < FloorPrice {
				lo = FloorPrice
			}
			if price < lo || price > hi {
				t.Fatalf("iteration %d: %s moved %d -> %d, outside [%d, %d]", i, name, prices[name], price, lo, hi)
			}
		}
		prices = next
	}
}

func TestAdvanceNeverBreaksFloor(t *testing.T) {
	e := newTestEngine(7, nil)
	prices := PriceTable{"Red": FloorPrice, "Blue": 11}
	for i := 0; i < 1000; i++ {
		prices = e.Advance(prices)
		for name, price := range prices {
			if price < FloorPrice {
				t.Fatalf("iteration %d: %s fell to %d", i, name, price)
			}
		}
	}
}

func TestAdvanceIsDeterministicPerSeed(t *testing.T) {
	a := newTestEngine(99, nil)
	b := newTestEngine(99, nil)
	prices := PriceTable{"Red": 100, "Blue": 50, "Green": 200}
	pa := a.Advance(prices)
	pb := b.Advance(prices)
	for name := range prices {
		if pa[name] != pb[name] {
			t.Fatalf("same seed diverged on %s: %d vs %d", name, pa[name], pb[name])
		}
	}
}

func TestMaybeTriggerEventAppliesExactDelta(t *testing.T) {
	events := []Event{{Description: "red rally", Deltas: map[string]int64{"Red": 15}}}
	e := newTestEngine(3, events)
	prices := PriceTable{"Red": 100, "Blue": 100}

	fired := 0
	for i := 0; i < 1000; i++ {
		next, desc, ok := e.MaybeTriggerEvent(prices)
		if !ok {
			if desc != "" {
				t.Fatalf("no event but description %q", desc)
			}
			for name, price := range next {
				if price != prices[name] {
					t.Fatalf("no event but %s changed %d -> %d", name, prices[name], price)
				}
			}
			continue
		}
		fired++
		if desc != "red rally" {
			t.Fatalf("unexpected description %q", desc)
		}
		if next["Red"] != 115 || next["Blue"] != 100 {
			t.Fatalf("wrong deltas applied: %v", next)
		}
		if prices["Red"] != 100 {
			t.Fatal("input table was mutated")
		}
	}
	// ~30% trigger rate; the seed makes the exact count stable.
	if fired < 200 || fired > 400 {
		t.Fatalf("fired %d times out of 1000, expected around 300", fired)
	}
}

func TestEventClampsToFloor(t *testing.T) {
	events := []Event{{Description: "crash", Deltas: map[string]int64{"Red": -20, "Ghost": -5}}}
	e := newTestEngine(5, events)
	prices := PriceTable{"Red": 15}

	for i := 0; i < 100; i++ {
		next, _, ok := e.MaybeTriggerEvent(prices)
		if !ok {
			continue
		}
		if next["Red"] != FloorPrice {
			t.Fatalf("expected clamp to %d, got %d", FloorPrice, next["Red"])
		}
		if _, exists := next["Ghost"]; exists {
			t.Fatal("delta for unknown color should be ignored")
		}
		return
	}
	t.Fatal("event never fired in 100 draws")
}

func TestDefaultEventsCatalog(t *testing.T) {
	events := DefaultEvents()
	if len(events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Description == "" || len(ev.Deltas) == 0 {
			t.Fatalf("malformed event: %+v", ev)
		}
	}
}
