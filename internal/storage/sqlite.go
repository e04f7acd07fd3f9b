package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hrcadm/cadencecase/internal"
	_ "modernc.org/sqlite"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS sleep_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		duration_hours REAL NOT NULL,
		quality INTEGER CHECK (quality BETWEEN 1 AND 5),
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sleep_logs_user_time ON sleep_logs (user_id, start_time)`,
	`CREATE TABLE IF NOT EXISTS active_sleeps (
		user_id TEXT PRIMARY KEY,
		start_time TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_patterns (
		user_id TEXT PRIMARY KEY,
		pattern TEXT NOT NULL,
		issues TEXT NOT NULL DEFAULT '[]',
		session_count INTEGER NOT NULL,
		analyzed_at TEXT NOT NULL
	)`,
}

// SQLiteStorage keeps everything in one SQLite database. Timestamps are stored
// as fixed-width RFC 3339 text that keeps the original offset, since hour of day
// feeds the pattern classifier.
type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

// NewSQLiteStorage opens (or creates) the database at path; ":memory:" is allowed.
func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Errorf("failed to open sqlite: %v", err)
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	for i, stmt := range sqliteMigrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.Format(sqliteTimeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const sqliteSleepColumns = `id, user_id, start_time, end_time, duration_hours, quality, notes, created_at`

func (s *SQLiteStorage) scanSleepLog(row rowScanner) (*internal.SleepLog, error) {
	var (
		l                     internal.SleepLog
		start, end, createdAt string
		quality               sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.UserID, &start, &end, &l.DurationHours, &quality, &l.Notes, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning sleep log: %w", err)
	}

	var err error
	if l.StartTime, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	if l.EndTime, err = parseTime(end); err != nil {
		return nil, fmt.Errorf("parsing end_time: %w", err)
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if quality.Valid {
		q := int(quality.Int64)
		l.Quality = &q
	}
	return &l, nil
}

// --- SleepLogRepository ---
func (s *SQLiteStorage) SaveSleepLog(ctx context.Context, log *internal.SleepLog) error {
	var quality sql.NullInt64
	if log.Quality != nil {
		quality = sql.NullInt64{Int64: int64(*log.Quality), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sleep_logs (`+sqliteSleepColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.UserID, formatTime(log.StartTime), formatTime(log.EndTime), log.DurationHours, quality, log.Notes, formatTime(log.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert sleep log: %v", err)
		return fmt.Errorf("inserting sleep log: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetSleepLog(ctx context.Context, userID, id string) (*internal.SleepLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteSleepColumns+` FROM sleep_logs WHERE user_id = ? AND id = ?`, userID, id)
	return s.scanSleepLog(row)
}

func (s *SQLiteStorage) UpdateQuality(ctx context.Context, userID, id string, quality int) (*internal.SleepLog, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE sleep_logs SET quality = ? WHERE user_id = ? AND id = ?`, quality, userID, id)
	if err != nil {
		s.logger.Errorf("failed to update sleep quality: %v", err)
		return nil, fmt.Errorf("updating quality: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetSleepLog(ctx, userID, id)
}

func (s *SQLiteStorage) ListSleepLogs(ctx context.Context, userID string) ([]internal.SleepLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteSleepColumns+` FROM sleep_logs WHERE user_id = ? ORDER BY start_time DESC`, userID)
	if err != nil {
		s.logger.Errorf("failed to query sleep logs: %v", err)
		return nil, fmt.Errorf("listing sleep logs: %w", err)
	}
	defer rows.Close()

	logs := []internal.SleepLog{}
	for rows.Next() {
		l, err := s.scanSleepLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// --- ActiveSleepRepository ---
func (s *SQLiteStorage) StartActive(ctx context.Context, active *internal.ActiveSleep) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO active_sleeps (user_id, start_time, created_at) VALUES (?, ?, ?) ON CONFLICT (user_id) DO NOTHING`,
		active.UserID, formatTime(active.StartTime), formatTime(active.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert active sleep: %v", err)
		return fmt.Errorf("inserting active sleep: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrActiveSleepExists
	}
	return nil
}

func (s *SQLiteStorage) GetActive(ctx context.Context, userID string) (*internal.ActiveSleep, error) {
	var a internal.ActiveSleep
	var start, createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT user_id, start_time, created_at FROM active_sleeps WHERE user_id = ?`, userID).
		Scan(&a.UserID, &start, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting active sleep: %w", err)
	}
	if a.StartTime, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStorage) ClearActive(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM active_sleeps WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting active sleep: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM active_sleeps`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting active sleeps: %w", err)
	}
	return n, nil
}

// --- PatternRepository ---
func (s *SQLiteStorage) SavePattern(ctx context.Context, snapshot *internal.PatternSnapshot) error {
	issues := snapshot.Issues
	if issues == nil {
		issues = []string{}
	}
	encoded, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("encoding issues: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO user_patterns (user_id, pattern, issues, session_count, analyzed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET pattern = excluded.pattern, issues = excluded.issues,
		session_count = excluded.session_count, analyzed_at = excluded.analyzed_at`,
		snapshot.UserID, snapshot.Pattern, string(encoded), snapshot.SessionCount, formatTime(snapshot.AnalyzedAt))
	if err != nil {
		s.logger.Errorf("failed to upsert pattern: %v", err)
		return fmt.Errorf("upserting pattern: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetPattern(ctx context.Context, userID string) (*internal.PatternSnapshot, error) {
	var p internal.PatternSnapshot
	var issues, analyzedAt string
	err := s.db.QueryRowContext(ctx, `SELECT user_id, pattern, issues, session_count, analyzed_at FROM user_patterns WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Pattern, &issues, &p.SessionCount, &analyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting pattern: %w", err)
	}
	if err := json.NewDecoder(strings.NewReader(issues)).Decode(&p.Issues); err != nil {
		return nil, fmt.Errorf("decoding issues: %w", err)
	}
	if p.AnalyzedAt, err = parseTime(analyzedAt); err != nil {
		return nil, fmt.Errorf("parsing analyzed_at: %w", err)
	}
	return &p, nil
}

// --- Compile-time assertions ---
var _ SleepLogRepository = (*SQLiteStorage)(nil)
var _ ActiveSleepRepository = (*SQLiteStorage)(nil)
var _ PatternRepository = (*SQLiteStorage)(nil)
