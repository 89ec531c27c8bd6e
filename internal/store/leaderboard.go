package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"Username", "Score", "Date"}

// LeaderboardFile persists the ranked list as a CSV with a Username, Score,
// Date header, matching what spreadsheet tools expect. Missing or mangled
// files read as an empty board.
type LeaderboardFile struct {
	Path string
}

func NewLeaderboardFile(path string) *LeaderboardFile {
	return &LeaderboardFile{Path: path}
}

func (f *LeaderboardFile) Load(_ context.Context) ([]LeaderboardEntry, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read leaderboard file: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		return nil, nil
	}

	var out []LeaderboardEntry
	for i, row := range rows {
		if i == 0 && row[0] == csvHeader[0] {
			continue
		}
		if len(row) < 2 {
			continue
		}
		score, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			continue
		}
		e := LeaderboardEntry{Username: row[0], Score: score}
		if len(row) >= 3 {
			if ts, err := time.ParseInLocation(DateFormat, row[2], time.Local); err == nil {
				e.Date = ts
			}
		}
		out = append(out, e)
	}
	SortEntries(out)
	return out, nil
}

func (f *LeaderboardFile) Save(_ context.Context, entries []LeaderboardEntry) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{e.Username, strconv.FormatInt(e.Score, 10), e.Date.Format(DateFormat)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	return writeFileAtomic(f.Path, buf.Bytes(), 0o644)
}
