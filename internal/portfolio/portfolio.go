package portfolio

import (
	"errors"
	"fmt"
	"math"

	"colorx/internal/market"
)

type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
)

var (
	ErrInvalidAction        = errors.New("invalid action, choose Buy or Sell")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInsufficientFunds    = errors.New("insufficient funds to complete purchase")
	ErrInsufficientHoldings = errors.New("not enough to sell")
)

// Portfolio is one player's cash balance plus owned quantities per color.
// Cash and every holding stay >= 0; failed trades leave it untouched.
type Portfolio struct {
	Cash     int64            `json:"cash"`
	Holdings map[string]int64 `json:"holdings"`
}

func New(startingCash int64, names []string) *Portfolio {
	h := make(map[string]int64, len(names))
	for _, name := range names {
		h[name] = 0
	}
	return &Portfolio{Cash: startingCash, Holdings: h}
}

func (p *Portfolio) Clone() *Portfolio {
	out := &Portfolio{Cash: p.Cash, Holdings: make(map[string]int64, len(p.Holdings))}
	for name, qty := range p.Holdings {
		out.Holdings[name] = qty
	}
	return out
}

// TradeRecord is an immutable log entry for one executed trade. Cash is the
// balance immediately after execution.
type TradeRecord struct {
	Action   Action `json:"action"`
	Color    string `json:"color"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
	Cash     int64  `json:"cash"`
}

// ExecuteTrade validates and applies a buy or sell at the given unit price.
// The portfolio is mutated only on success; the returned message is meant
// for direct display.
func (p *Portfolio) ExecuteTrade(action Action, color string, quantity, price int64) (string, error) {
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}
	// quantity*price must not wrap: a wrapped negative total would pass the
	// cash guard and credit the buyer.
	if price > 0 && quantity > math.MaxInt64/price {
		return "", ErrInvalidQuantity
	}
	total := quantity * price

	switch action {
	case ActionBuy:
		if p.Cash < total {
			return "", ErrInsufficientFunds
		}
		p.Cash -= total
		p.Holdings[color] += quantity
		return fmt.Sprintf("Bought %d of %s at ₹%d.", quantity, color, price), nil

	case ActionSell:
		if p.Holdings[color] < quantity {
			return "", fmt.Errorf("you don't own enough %s: %w", color, ErrInsufficientHoldings)
		}
		p.Holdings[color] -= quantity
		p.Cash += total
		return fmt.Sprintf("Sold %d of %s at ₹%d.", quantity, color, price), nil
	}
	return "", ErrInvalidAction
}

// Valuate returns cash plus the market value of all holdings priced by the
// given table.
func (p *Portfolio) Valuate(prices market.PriceTable) int64 {
	value := p.Cash
	for name, price := range prices {
		value += p.Holdings[name] * price
	}
	return value
}
