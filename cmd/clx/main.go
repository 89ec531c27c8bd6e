package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "colorx/internal/cli"
	"colorx/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "clx",
		Short:        "Color Exchange CLI game client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newSignupCmd(&apiBase),
		newLoginCmd(&apiBase),
		newLogoutCmd(&apiBase),
		newStatusCmd(&apiBase),
		newTradeCmd(&apiBase),
		newHistoryCmd(&apiBase),
		newRestartCmd(&apiBase),
		newLeaderboardCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newSignupCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create a Color Exchange account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := promptRequired("Username")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			msg, err := newClient(apiBase).Signup(ctx, username, password)
			if err != nil {
				return err
			}
			printSuccess(msg)
			printNeutral("Run `clx login` to start trading.")
			return nil
		},
	}
}

func newLoginCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login and start a fresh game",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := promptRequired("Username")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Login(ctx, username, password)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{Token: out.Token, Username: username}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Welcome back, %s!", username))
			renderSnapshot(out.Session)
			return nil
		},
	}
}

func newLogoutCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear the local token",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err == nil {
				ctx, cancel := cmdContext(cmd)
				defer cancel()
				// Best effort: the local token is cleared either way.
				_ = newClient(apiBase).Logout(ctx, sess.Token)
			}
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printNeutral("Logged out.")
			return nil
		},
	}
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current prices, portfolio and trade count",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			snap, err := newClient(apiBase).Snapshot(ctx, sess.Token)
			if err != nil {
				return err
			}
			renderSnapshot(snap)
			return nil
		},
	}
}

func newTradeCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "trade <buy|sell> <color> <quantity>",
		Short: "Execute a trade at the current market price",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := parseAction(args[0])
			if err != nil {
				return err
			}
			quantity, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Trade(ctx, sess.Token, action, titleCase(args[1]), quantity)
			if err != nil {
				return err
			}
			printSuccess(out.Message)
			if out.Event != "" {
				printWarn("Market News: " + out.Event)
			}
			if out.GameOver {
				printWarn(fmt.Sprintf("Game over! Final portfolio value: %s", formatMoney(out.FinalValue)))
				printNeutral("Run `clx restart` to play again.")
			}
			renderSnapshot(out.Session)
			return nil
		},
	}
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show this game's trade history",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			snap, err := newClient(apiBase).Snapshot(ctx, sess.Token)
			if err != nil {
				return err
			}
			renderHistory(snap)
			return nil
		},
	}
}

func newRestartCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Start over after game over",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Restart(ctx, sess.Token)
			if err != nil {
				return err
			}
			printSuccess("Fresh game started.")
			renderSnapshot(out.Session)
			return nil
		},
	}
}

func newLeaderboardCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the global top scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Leaderboard(ctx)
			if err != nil {
				return err
			}
			renderLeaderboard(out.Rows)
			return nil
		},
	}
}

func parseAction(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return "Buy", nil
	case "sell":
		return "Sell", nil
	}
	return "", fmt.Errorf("action must be buy or sell, got %q", raw)
}

func titleCase(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	return strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
}
