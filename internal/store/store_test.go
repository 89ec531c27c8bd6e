package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"colorx/internal/portfolio"
)

func TestUserFileMissingReadsEmpty(t *testing.T) {
	f := NewUserFile(filepath.Join(t.TempDir(), "users.json"))
	users, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected empty store, got %d users", len(users))
	}
}

func TestUserFileCorruptSelfRepairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	users, err := NewUserFile(path).Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt store should not be fatal: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected empty store, got %d users", len(users))
	}
}

func TestUserFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := NewUserFile(filepath.Join(t.TempDir(), "users.json"))

	pf := portfolio.New(500, []string{"Red"})
	pf.Holdings["Red"] = 2
	in := map[string]UserRecord{
		"alice": {Password: "$2a$10$digest", Portfolio: pf, TradeHistory: []portfolio.TradeRecord{
			{Action: portfolio.ActionBuy, Color: "Red", Quantity: 2, Price: 100, Cash: 800},
		}},
		"bob": {Password: "$2a$10$other"},
	}
	if err := f.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	alice := out["alice"]
	if alice.Password != "$2a$10$digest" {
		t.Fatalf("password digest changed: %q", alice.Password)
	}
	if alice.Portfolio == nil || alice.Portfolio.Cash != 500 || alice.Portfolio.Holdings["Red"] != 2 {
		t.Fatalf("portfolio mangled: %+v", alice.Portfolio)
	}
	if len(alice.TradeHistory) != 1 || alice.TradeHistory[0].Cash != 800 {
		t.Fatalf("history mangled: %+v", alice.TradeHistory)
	}
	if out["bob"].Portfolio != nil {
		t.Fatal("bob should have a null portfolio")
	}
}

func TestLeaderboardFileMissingReadsEmpty(t *testing.T) {
	f := NewLeaderboardFile(filepath.Join(t.TempDir(), "leaderboard.csv"))
	entries, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty board, got %d entries", len(entries))
	}
}

func TestLeaderboardFileCorruptReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.csv")
	if err := os.WriteFile(path, []byte("\"unterminated\nmess"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := NewLeaderboardFile(path).Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt board should not be fatal: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty board, got %d entries", len(entries))
	}
}

func TestLeaderboardFileSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.csv")
	raw := "Username,Score,Date\nalice,1200,2026-08-30 10:00:00\nbroken,notanumber,whenever\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := NewLeaderboardFile(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].Username != "alice" || entries[0].Score != 1200 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLeaderboardFileRoundTripSorted(t *testing.T) {
	ctx := context.Background()
	f := NewLeaderboardFile(filepath.Join(t.TempDir(), "leaderboard.csv"))

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	in := []LeaderboardEntry{
		{Username: "low", Score: 100, Date: now},
		{Username: "high", Score: 9000, Date: now},
		{Username: "mid", Score: 500, Date: now},
	}
	SortEntries(in)
	if err := f.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	if out[0].Username != "high" || out[1].Username != "mid" || out[2].Username != "low" {
		t.Fatalf("not sorted descending: %+v", out)
	}
	if !out[0].Date.Equal(now) {
		t.Fatalf("timestamp mangled: %v", out[0].Date)
	}
}

func TestInsertScoreCapsAndSorts(t *testing.T) {
	var entries []LeaderboardEntry
	for i := 0; i < 25; i++ {
		entries = InsertScore(entries, LeaderboardEntry{
			Username: fmt.Sprintf("user%d", i),
			Score:    int64(i * 10),
			Date:     time.Now(),
		})
		if len(entries) > MaxLeaderboardEntries {
			t.Fatalf("board exceeded cap: %d", len(entries))
		}
		for j := 1; j < len(entries); j++ {
			if entries[j-1].Score < entries[j].Score {
				t.Fatalf("board not sorted after insert %d: %+v", i, entries)
			}
		}
	}
	if len(entries) != MaxLeaderboardEntries {
		t.Fatalf("expected exactly %d entries, got %d", MaxLeaderboardEntries, len(entries))
	}
	if entries[0].Score != 240 {
		t.Fatalf("top score = %d, want 240", entries[0].Score)
	}
}

func TestInsertScoreAllowsDuplicateUsernames(t *testing.T) {
	entries := InsertScore(nil, LeaderboardEntry{Username: "alice", Score: 100})
	entries = InsertScore(entries, LeaderboardEntry{Username: "alice", Score: 200})
	if len(entries) != 2 {
		t.Fatalf("repeat play should add rows, got %d", len(entries))
	}
}
