package store

import (
	"context"
	"sort"
	"time"

	"colorx/internal/portfolio"
)

// MaxLeaderboardEntries caps the global leaderboard after every insert.
const MaxLeaderboardEntries = 20

// DateFormat is how leaderboard timestamps are rendered in the CSV file and
// over the API.
const DateFormat = "2006-01-02 15:04:05"

// UserRecord is everything persisted per username. Portfolio is nil until
// the user finishes a first game.
type UserRecord struct {
	Password     string                  `json:"password"`
	Portfolio    *portfolio.Portfolio    `json:"portfolio"`
	TradeHistory []portfolio.TradeRecord `json:"trade_history"`
}

type LeaderboardEntry struct {
	Username string    `json:"username"`
	Score    int64     `json:"score"`
	Date     time.Time `json:"date"`
}

// UserStore reads and writes the whole credential collection. Backends must
// treat a missing or unparsable store as empty rather than failing.
type UserStore interface {
	Load(ctx context.Context) (map[string]UserRecord, error)
	Save(ctx context.Context, users map[string]UserRecord) error
}

// LeaderboardStore reads and rewrites the whole ranked list.
type LeaderboardStore interface {
	Load(ctx context.Context) ([]LeaderboardEntry, error)
	Save(ctx context.Context, entries []LeaderboardEntry) error
}

// InsertScore appends an entry, re-sorts descending by score and truncates
// to the cap. Entries are never deduplicated per user: repeated play can
// legitimately occupy several rows.
func InsertScore(entries []LeaderboardEntry, e LeaderboardEntry) []LeaderboardEntry {
	out := append(append([]LeaderboardEntry(nil), entries...), e)
	SortEntries(out)
	if len(out) > MaxLeaderboardEntries {
		out = out[:MaxLeaderboardEntries]
	}
	return out
}

func SortEntries(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}
