//go:build sqlite

package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.WithStack(err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS epochs (
			run        TEXT    NOT NULL,
			epoch      INTEGER NOT NULL,
			samples    INTEGER NOT NULL,
			real       REAL    NOT NULL,
			fake       REAL    NOT NULL,
			fool       REAL    NOT NULL,
			accuracy   REAL    NOT NULL DEFAULT 0,
			elapsed_ns INTEGER NOT NULL,
			PRIMARY KEY (run, epoch)
		)
	`); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create epochs table")
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveEpoch(ctx context.Context, rec Record) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO epochs (run, epoch, samples, real, fake, fool, accuracy, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run, epoch) DO UPDATE SET
			samples = excluded.samples,
			real = excluded.real,
			fake = excluded.fake,
			fool = excluded.fool,
			accuracy = excluded.accuracy,
			elapsed_ns = excluded.elapsed_ns
	`, rec.Run, rec.Epoch, rec.Samples, float64(rec.Real), float64(rec.Fake), float64(rec.Fool), float64(rec.Accuracy), int64(rec.Elapsed))
	return errors.WithStack(err)
}

func (s *SQLiteStore) GetHistory(ctx context.Context, run string) ([]Record, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT epoch, samples, real, fake, fool, accuracy, elapsed_ns
		FROM epochs WHERE run = ? ORDER BY epoch
	`, run)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	defer rows.Close()

	var retVal []Record
	for rows.Next() {
		var (
			rec              Record
			real, fake, fool float64
			accuracy         float64
			elapsed          int64
		)
		if err := rows.Scan(&rec.Epoch, &rec.Samples, &real, &fake, &fool, &accuracy, &elapsed); err != nil {
			return nil, false, errors.Wrapf(err, "scan history of %s", run)
		}
		rec.Run = run
		rec.Real, rec.Fake, rec.Fool = float32(real), float32(fake), float32(fool)
		rec.Accuracy = float32(accuracy)
		rec.Elapsed = time.Duration(elapsed)
		retVal = append(retVal, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, errors.WithStack(err)
	}
	return retVal, len(retVal) > 0, nil
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT run FROM epochs ORDER BY run`)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	var retVal []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, errors.WithStack(err)
		}
		retVal = append(retVal, run)
	}
	return retVal, errors.WithStack(rows.Err())
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return errors.WithStack(err)
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}
