package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leporo/sqlf"
	"github.com/samber/lo"

	"health-go/internal/database/migrations"
	"health-go/internal/health"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the health.Database interface using SQLite.
// Inserts are serialized by mu and the pool holds a single connection, so
// one handle can be shared freely between goroutines.
type SQLiteDatabase struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteDatabase opens the database at path and brings its schema up to
// date. path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return &SQLiteDatabase{db: db}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

func (s *SQLiteDatabase) insert(q *sqlf.Stmt) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := q.ExecAndClose(context.Background(), s.db)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Record inserts

func (s *SQLiteDatabase) InsertBloodPressure(r *health.BloodPressureRecord) error {
	id, err := s.insert(sqlf.InsertInto("blood_pressure").
		Set("systolic", r.Systolic).
		Set("diastolic", r.Diastolic).
		Set("created", r.Created.UnixMilli()))
	if err != nil {
		return fmt.Errorf("inserting blood pressure: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLiteDatabase) InsertWeight(r *health.WeightRecord) error {
	id, err := s.insert(sqlf.InsertInto("weight").
		Set("weight", r.Weight).
		Set("created", r.Created.UnixMilli()))
	if err != nil {
		return fmt.Errorf("inserting weight: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLiteDatabase) InsertCalories(r *health.CaloriesRecord) error {
	id, err := s.insert(sqlf.InsertInto("calories").
		Set("calories", r.Calories).
		Set("created", r.Created.UnixMilli()))
	if err != nil {
		return fmt.Errorf("inserting calories: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLiteDatabase) InsertPoints(r *health.PointsRecord) error {
	id, err := s.insert(sqlf.InsertInto("points").
		Set("points", r.Points).
		Set("created", r.Created.UnixMilli()))
	if err != nil {
		return fmt.Errorf("inserting points: %w", err)
	}
	r.ID = id
	return nil
}

// Time-series reads

// recent queries the newest limit rows of q (all rows when limit <= 0) and
// calls each for every row, newest first.
func (s *SQLiteDatabase) recent(q *sqlf.Stmt, limit int, each func()) error {
	q.OrderBy("created DESC", "id DESC")
	if limit > 0 {
		q.Limit(limit)
	}
	err := q.QueryAndClose(context.Background(), s.db, func(*sql.Rows) { each() })
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (s *SQLiteDatabase) ListBloodPressure(limit int) ([]*health.BloodPressureRecord, error) {
	var (
		tmp     health.BloodPressureRecord
		created int64
		result  []*health.BloodPressureRecord
	)
	q := sqlf.From("blood_pressure").
		Select("id").To(&tmp.ID).
		Select("systolic").To(&tmp.Systolic).
		Select("diastolic").To(&tmp.Diastolic).
		Select("created").To(&created)

	err := s.recent(q, limit, func() {
		r := tmp
		r.Created = fromMillis(created)
		result = append(result, &r)
	})
	if err != nil {
		return nil, fmt.Errorf("listing blood pressure: %w", err)
	}
	return lo.Reverse(result), nil
}

func (s *SQLiteDatabase) ListWeight(limit int) ([]*health.WeightRecord, error) {
	var (
		tmp     health.WeightRecord
		created int64
		result  []*health.WeightRecord
	)
	q := sqlf.From("weight").
		Select("id").To(&tmp.ID).
		Select("weight").To(&tmp.Weight).
		Select("created").To(&created)

	err := s.recent(q, limit, func() {
		r := tmp
		r.Created = fromMillis(created)
		result = append(result, &r)
	})
	if err != nil {
		return nil, fmt.Errorf("listing weight: %w", err)
	}
	return lo.Reverse(result), nil
}

func (s *SQLiteDatabase) ListCalories(limit int) ([]*health.CaloriesRecord, error) {
	var (
		tmp     health.CaloriesRecord
		created int64
		result  []*health.CaloriesRecord
	)
	q := sqlf.From("calories").
		Select("id").To(&tmp.ID).
		Select("calories").To(&tmp.Calories).
		Select("created").To(&created)

	err := s.recent(q, limit, func() {
		r := tmp
		r.Created = fromMillis(created)
		result = append(result, &r)
	})
	if err != nil {
		return nil, fmt.Errorf("listing calories: %w", err)
	}
	return lo.Reverse(result), nil
}

func (s *SQLiteDatabase) ListPoints(limit int) ([]*health.PointsRecord, error) {
	var (
		tmp     health.PointsRecord
		created int64
		result  []*health.PointsRecord
	)
	q := sqlf.From("points").
		Select("id").To(&tmp.ID).
		Select("points").To(&tmp.Points).
		Select("created").To(&created)

	err := s.recent(q, limit, func() {
		r := tmp
		r.Created = fromMillis(created)
		result = append(result, &r)
	})
	if err != nil {
		return nil, fmt.Errorf("listing points: %w", err)
	}
	return lo.Reverse(result), nil
}

// Counts returns the number of rows in every record table.
func (s *SQLiteDatabase) Counts() (map[health.Kind]int, error) {
	counts := make(map[health.Kind]int, len(health.Kinds))
	for _, kind := range health.Kinds {
		var n int
		q := sqlf.From(string(kind)).Select("COUNT(*)").To(&n)
		if err := q.QueryRowAndClose(context.Background(), s.db); err != nil {
			return nil, fmt.Errorf("counting %s: %w", kind, err)
		}
		counts[kind] = n
	}
	return counts, nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements health.Database interface
var _ health.Database = (*SQLiteDatabase)(nil)
