package market

import (
	"math/rand"
	"time"
)

const (
	StartingPrice = int64(100)
	FloorPrice    = int64(10)

	// Per-trade drift is a uniform draw in [-MaxDriftPct, +MaxDriftPct].
	MaxDriftPct = 0.10

	// Chance that a shock event fires after a price advance.
	EventChance = 0.3
)

// PriceTable maps color name to current price. Prices never drop below
// FloorPrice.
type PriceTable map[string]int64

func (p PriceTable) Clone() PriceTable {
	out := make(PriceTable, len(p))
	for name, price := range p {
		out[name] = price
	}
	return out
}

// Event is a discrete market shock applying signed deltas to one or more
// colors at once.
type Event struct {
	Description string
	Deltas      map[string]int64
}

// DefaultEvents is the stock shock catalog. The catalog is configuration:
// callers may supply their own via NewEngine.
func DefaultEvents() []Event {
	return []Event{
		{Description: "🔥 Demand surge for Red!", Deltas: map[string]int64{"Red": 15}},
		{Description: "🧊 Blue dye shortage hits market", Deltas: map[string]int64{"Blue": 12}},
		{Description: "🌿 Green pigment oversupply", Deltas: map[string]int64{"Green": -10}},
		{Description: "📉 Market-wide correction", Deltas: map[string]int64{"Red": -8, "Blue": -8, "Green": -8}},
		{Description: "💥 Red bubble burst!", Deltas: map[string]int64{"Red": -20}},
		{Description: "📈 All colors spike!", Deltas: map[string]int64{"Red": 10, "Blue": 10, "Green": 10}},
	}
}

// Engine owns the random source driving price drift and event selection.
// One engine per session; not safe for concurrent use.
type Engine struct {
	rand   *rand.Rand
	events []Event
}

// NewEngine builds an engine. A nil rng gets a time-seeded source; nil
// events gets DefaultEvents. Tests inject a seeded rng for determinism.
func NewEngine(rng *rand.Rand, events []Event) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if events == nil {
		events = DefaultEvents()
	}
	return &Engine{rand: rng, events: events}
}

// Initialize returns a fresh price table with every color at StartingPrice.
func (e *Engine) Initialize(names []string) PriceTable {
	out := make(PriceTable, len(names))
	for _, name := range names {
		out[name] = StartingPrice
	}
	return out
}

// Advance applies an independent uniform percentage drift to each price and
// returns a new table. Every resulting price is clamped to FloorPrice.
func (e *Engine) Advance(prices PriceTable) PriceTable {
	out := make(PriceTable, len(prices))
	for name, price := range prices {
		pct := e.rand.Float64()*2*MaxDriftPct - MaxDriftPct
		next := int64(float64(price) * (1 + pct))
		if next < FloorPrice {
			next = FloorPrice
		}
		out[name] = next
	}
	return out
}

// MaybeTriggerEvent fires a shock event with probability EventChance. When
// no event fires the input table is returned untouched and ok is false.
// Deltas for colors absent from the table are ignored.
func (e *Engine) MaybeTriggerEvent(prices PriceTable) (PriceTable, string, bool) {
	if e.rand.Float64() >= EventChance {
		return prices, "", false
	}
	ev := e.events[e.rand.Intn(len(e.events))]
	out := prices.Clone()
	for name, delta := range ev.Deltas {
		price, ok := out[name]
		if !ok {
			continue
		}
		price += delta
		if price < FloorPrice {
			price = FloorPrice
		}
		out[name] = price
	}
	return out, ev.Description, true
}
