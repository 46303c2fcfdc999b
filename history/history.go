// Package history records the broker transactions already imported into a
// ledger, so that later runs can prune them without reading the ledger.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/etnz/tdledger"
	"github.com/etnz/tdledger/date"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS imports (
	link TEXT NOT NULL PRIMARY KEY,
	date TEXT NOT NULL,
	narration TEXT,
	imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Store is a sqlite database of imported transaction links.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the store at path. A nil logger uses slog.Default().
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history at %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	logger.Debug("history opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record stores the imported links of the transactions in entries. Links
// already recorded are left unchanged. It returns the number of new links.
func (s *Store) Record(ctx context.Context, entries []tdledger.Entry) (int, error) {
	seen := tdledger.CollectSeen(entries)
	if seen.Empty() {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning history transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO imports (link, date, narration) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	added := 0
	for t := range tdledger.Transactions(entries) {
		for _, link := range t.Links {
			if !seen.Links[link] {
				continue
			}
			res, err := stmt.ExecContext(ctx, link, t.Date.String(), t.Narration)
			if err != nil {
				return 0, fmt.Errorf("error recording %s: %w", link, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				added++
			} else {
				s.logger.Debug("skipping already recorded import", "link", link)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing history: %w", err)
	}
	s.logger.Info("history updated", "new", added)
	return added, nil
}

// Seen returns every recorded link and the date of the last one.
func (s *Store) Seen(ctx context.Context) (tdledger.Seen, error) {
	var seen tdledger.Seen
	rows, err := s.db.QueryContext(ctx, `SELECT link, date FROM imports`)
	if err != nil {
		return seen, fmt.Errorf("error reading history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var link, on string
		if err := rows.Scan(&link, &on); err != nil {
			return seen, fmt.Errorf("error reading history: %w", err)
		}
		d, err := date.Parse(on)
		if err != nil {
			return seen, fmt.Errorf("invalid date for %s: %w", link, err)
		}
		seen.Add(link, d)
	}
	return seen, rows.Err()
}
