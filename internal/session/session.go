package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"colorx/internal/auth"
	"colorx/internal/config"
	"colorx/internal/market"
	"colorx/internal/portfolio"
	"colorx/internal/store"
)

type State string

const (
	StateLoggedOut State = "logged_out"
	StateActive    State = "active"
	StateGameOver  State = "game_over"
)

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrGameOver        = errors.New("game over, max trades reached")
	ErrGameNotOver     = errors.New("restart is only available after game over")
	ErrUnknownColor    = errors.New("unknown color")
)

// Controller runs one play-through: LoggedOut -> Active -> GameOver, with
// Active looping on each non-terminal trade. It exclusively owns its price
// table and portfolio; callers serialize access.
type Controller struct {
	cfg    config.Game
	engine *market.Engine
	auth   *auth.Service
	board  store.LeaderboardStore
	log    *slog.Logger
	now    func() time.Time

	state      State
	username   string
	prices     market.PriceTable
	pf         *portfolio.Portfolio
	history    []portfolio.TradeRecord
	tradeCount int
	finalValue int64
}

func New(cfg config.Game, engine *market.Engine, authSvc *auth.Service, board store.LeaderboardStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = market.NewEngine(nil, nil)
	}
	return &Controller{
		cfg:    cfg,
		engine: engine,
		auth:   authSvc,
		board:  board,
		log:    logger,
		now:    time.Now,
		state:  StateLoggedOut,
	}
}

// Signup delegates to the credential service. Valid in any state and never
// changes the session.
func (c *Controller) Signup(ctx context.Context, username, password string) error {
	return c.auth.Signup(ctx, username, password)
}

// Login verifies credentials and, on success, establishes a fresh session.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	if c.state != StateLoggedOut {
		return ErrAlreadyLoggedIn
	}
	if _, err := c.auth.Login(ctx, username, password); err != nil {
		return err
	}
	c.username = username
	c.reset()
	c.state = StateActive
	c.log.Info("session started", "username", username)
	return nil
}

// TradeResult is what a successful SubmitTrade hands back for display.
type TradeResult struct {
	Message    string
	Event      string
	GameOver   bool
	FinalValue int64
}

// SubmitTrade executes one trade at the color's current price, then
// advances the market and possibly fires a shock event. Reaching the trade
// cap flips the session to game over and writes the result through to the
// leaderboard and credential stores.
func (c *Controller) SubmitTrade(ctx context.Context, action portfolio.Action, color string, quantity int64) (TradeResult, error) {
	var out TradeResult
	switch c.state {
	case StateLoggedOut:
		return out, ErrNotLoggedIn
	case StateGameOver:
		return out, ErrGameOver
	}
	price, ok := c.prices[color]
	if !ok {
		return out, fmt.Errorf("%w: %s", ErrUnknownColor, color)
	}

	msg, err := c.pf.ExecuteTrade(action, color, quantity, price)
	if err != nil {
		return out, err
	}
	out.Message = msg

	c.history = append(c.history, portfolio.TradeRecord{
		Action:   action,
		Color:    color,
		Quantity: quantity,
		Price:    price,
		Cash:     c.pf.Cash,
	})
	c.tradeCount++

	c.prices = c.engine.Advance(c.prices)
	if next, desc, fired := c.engine.MaybeTriggerEvent(c.prices); fired {
		c.prices = next
		out.Event = desc
	}

	if c.tradeCount >= c.cfg.GameSettings.MaxTrades {
		c.state = StateGameOver
		c.finalValue = c.pf.Valuate(c.prices)
		out.GameOver = true
		out.FinalValue = c.finalValue
		c.writeThrough(ctx)
	}
	return out, nil
}

// writeThrough persists the finished game. Store failures are logged and
// swallowed: persistence trouble never undoes a game over.
func (c *Controller) writeThrough(ctx context.Context) {
	entries, err := c.board.Load(ctx)
	if err != nil {
		// Saving on top of a failed load would rewrite the whole board
		// from this one score; keep the existing file instead.
		c.log.Error("leaderboard load failed, skipping score write", "err", err)
	} else {
		entries = store.InsertScore(entries, store.LeaderboardEntry{
			Username: c.username,
			Score:    c.finalValue,
			Date:     c.now(),
		})
		if err := c.board.Save(ctx, entries); err != nil {
			c.log.Error("leaderboard save failed", "err", err)
		}
	}
	if err := c.auth.SaveProgress(ctx, c.username, c.pf.Clone(), append([]portfolio.TradeRecord(nil), c.history...)); err != nil {
		c.log.Error("save progress failed", "err", err)
	}
	c.log.Info("game over", "username", c.username, "final_value", c.finalValue, "trades", c.tradeCount)
}

// Restart rebuilds the session from scratch, exactly as login does.
func (c *Controller) Restart() error {
	if c.state != StateGameOver {
		return ErrGameNotOver
	}
	c.reset()
	c.state = StateActive
	c.log.Info("session restarted", "username", c.username)
	return nil
}

// Logout discards the ephemeral session. Valid from any state.
func (c *Controller) Logout() {
	c.username = ""
	c.prices = nil
	c.pf = nil
	c.history = nil
	c.tradeCount = 0
	c.finalValue = 0
	c.state = StateLoggedOut
}

func (c *Controller) reset() {
	names := c.cfg.ColorNames()
	c.prices = c.engine.Initialize(names)
	c.pf = portfolio.New(c.cfg.GameSettings.StartingCash, names)
	c.history = nil
	c.tradeCount = 0
	c.finalValue = 0
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Username() string { return c.username }

func (c *Controller) TradeCount() int { return c.tradeCount }

func (c *Controller) GameOver() bool { return c.state == StateGameOver }

func (c *Controller) FinalValue() int64 { return c.finalValue }

func (c *Controller) Prices() market.PriceTable {
	if c.prices == nil {
		return nil
	}
	return c.prices.Clone()
}

func (c *Controller) Portfolio() *portfolio.Portfolio {
	if c.pf == nil {
		return nil
	}
	return c.pf.Clone()
}

func (c *Controller) History() []portfolio.TradeRecord {
	return append([]portfolio.TradeRecord(nil), c.history...)
}

// Leaderboard returns the current board snapshot, sorted descending.
func (c *Controller) Leaderboard(ctx context.Context) ([]store.LeaderboardEntry, error) {
	entries, err := c.board.Load(ctx)
	if err != nil {
		return nil, err
	}
	store.SortEntries(entries)
	return entries, nil
}
