package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"colorx/internal/api"
	"colorx/internal/cli"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		line, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		warn.Printf("%s cannot be empty.\n", label)
	}
}

// promptPassword reads without echoing. Falls back to a plain prompt when
// stdin is not a terminal (piped input in scripts).
func promptPassword(label string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return promptRequired(label)
	}
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	pw := strings.TrimSpace(string(raw))
	if pw == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.ToLower(label))
	}
	return pw, nil
}

func printSuccess(msg string) { success.Println(msg) }

func printWarn(msg string) { warn.Println(msg) }

func printNeutral(msg string) { neutral.Println(msg) }

func formatMoney(v int64) string {
	return fmt.Sprintf("₹%d", v)
}

func renderSnapshot(snap api.SessionSnapshot) {
	accent.Println("\nMarket Prices")
	for _, c := range snap.Colors {
		price, ok := snap.Prices[c.Name]
		if !ok {
			continue
		}
		fmt.Printf("  %s %-8s %s\n", c.Emoji, c.Name, formatMoney(price))
	}

	accent.Println("\nPortfolio")
	if snap.Portfolio != nil {
		fmt.Printf("  %-10s %s\n", "Cash", formatMoney(snap.Portfolio.Cash))
		for _, c := range snap.Colors {
			fmt.Printf("  %-10s %d\n", c.Name, snap.Portfolio.Holdings[c.Name])
		}
	}

	status := fmt.Sprintf("Trades: %d/%d", snap.TradeCount, snap.MaxTrades)
	if snap.GameOver {
		status += fmt.Sprintf("  |  GAME OVER, final value %s", formatMoney(snap.FinalValue))
	}
	neutral.Println("\n" + status)
}

func renderHistory(snap api.SessionSnapshot) {
	if len(snap.History) == 0 {
		neutral.Println("No trades made yet. Start trading to see history here.")
		return
	}
	accent.Println("Trade History")
	fmt.Printf("  %-3s %-5s %-8s %8s %10s %12s\n", "#", "Side", "Color", "Qty", "Price", "Cash After")
	for i, t := range snap.History {
		fmt.Printf("  %-3d %-5s %-8s %8d %10s %12s\n",
			i+1, t.Action, t.Color, t.Quantity, formatMoney(t.Price), formatMoney(t.Cash))
	}
}

func renderLeaderboard(rows []cli.LeaderboardRow) {
	if len(rows) == 0 {
		warn.Println("Leaderboard is empty. Be the first to record a top score!")
		return
	}
	accent.Println("Global Leaderboard")
	fmt.Printf("  %-4s %-16s %10s  %s\n", "Rank", "Username", "Score", "Date")
	for _, r := range rows {
		fmt.Printf("  %-4d %-16s %10s  %s\n", r.Rank, r.Username, formatMoney(r.Score), r.Date)
	}
}
