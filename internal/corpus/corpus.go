// Package corpus persists fuzz samples and their execution outcomes in a
// SQLite database, so failing programs survive a campaign and can be
// replayed or compared against other backends later.
package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Sample is one generated program together with how its execution ended.
type Sample struct {
	// ID is a UUID assigned on insert when empty.
	ID string

	// Assembly is the program in textual bytecode assembly form.
	Assembly string

	// SlotCount is the environment size the program was run with.
	SlotCount int

	// Outcome is the failure classification ("ok" for a clean run,
	// otherwise vm.FailureKind.String()).
	Outcome string

	// Detail is the rendered result value or the failure message.
	Detail string

	CreatedAt time.Time
}

// OutcomeOK marks samples that ran to completion.
const OutcomeOK = "ok"

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id         TEXT PRIMARY KEY,
	assembly   TEXT NOT NULL,
	slot_count INTEGER NOT NULL,
	outcome    TEXT NOT NULL,
	detail     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_outcome ON samples(outcome);
`

// Store is a corpus database handle. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a corpus database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing corpus %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts a sample and returns its ID, assigning a fresh UUID when the
// sample has none.
func (s *Store) Put(ctx context.Context, sample Sample) (string, error) {
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO samples (id, assembly, slot_count, outcome, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sample.ID, sample.Assembly, sample.SlotCount, sample.Outcome, sample.Detail,
		sample.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("inserting sample %s: %w", sample.ID, err)
	}
	return sample.ID, nil
}

// Get loads one sample by ID.
func (s *Store) Get(ctx context.Context, id string) (Sample, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, assembly, slot_count, outcome, detail, created_at FROM samples WHERE id = ?`, id)
	sample, err := scanSample(row)
	if err == sql.ErrNoRows {
		return Sample{}, fmt.Errorf("sample %s not found", id)
	}
	if err != nil {
		return Sample{}, fmt.Errorf("loading sample %s: %w", id, err)
	}
	return sample, nil
}

// List returns up to limit samples with the given outcome, newest first. An
// empty outcome selects every sample.
func (s *Store) List(ctx context.Context, outcome string, limit int) ([]Sample, error) {
	query := `SELECT id, assembly, slot_count, outcome, detail, created_at FROM samples`
	args := []interface{}{}
	if outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, outcome)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// CountByOutcome returns how many stored samples ended in each outcome.
func (s *Store) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM samples GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("counting samples: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSample(row rowScanner) (Sample, error) {
	var sample Sample
	var createdAt string
	if err := row.Scan(&sample.ID, &sample.Assembly, &sample.SlotCount,
		&sample.Outcome, &sample.Detail, &createdAt); err != nil {
		return Sample{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Sample{}, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	sample.CreatedAt = ts
	return sample, nil
}
