package storage

import (
	"context"
	"errors"

	"github.com/hrcadm/cadencecase/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sleep_logs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	duration_hours DOUBLE PRECISION NOT NULL,
	quality INTEGER CHECK (quality BETWEEN 1 AND 5),
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sleep_logs_user_time ON sleep_logs (user_id, start_time);
CREATE TABLE IF NOT EXISTS active_sleeps (
	user_id TEXT PRIMARY KEY,
	start_time TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS user_patterns (
	user_id TEXT PRIMARY KEY,
	pattern TEXT NOT NULL,
	issues TEXT[] NOT NULL DEFAULT '{}',
	session_count INTEGER NOT NULL,
	analyzed_at TIMESTAMPTZ NOT NULL
);`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		logger.Errorf("failed to create postgres schema: %v", err)
		pool.Close()
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

const sleepLogColumns = `id, user_id, start_time, end_time, duration_hours, quality, notes, created_at`

func scanSleepLog(row pgx.Row) (*internal.SleepLog, error) {
	var l internal.SleepLog
	if err := row.Scan(&l.ID, &l.UserID, &l.StartTime, &l.EndTime, &l.DurationHours, &l.Quality, &l.Notes, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// --- SleepLogRepository ---
func (p *PostgresStorage) SaveSleepLog(ctx context.Context, log *internal.SleepLog) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO sleep_logs (`+sleepLogColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.UserID, log.StartTime, log.EndTime, log.DurationHours, log.Quality, log.Notes, log.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert sleep log: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetSleepLog(ctx context.Context, userID, id string) (*internal.SleepLog, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+sleepLogColumns+` FROM sleep_logs WHERE user_id = $1 AND id = $2`, userID, id)
	l, err := scanSleepLog(row)
	if err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

func (p *PostgresStorage) UpdateQuality(ctx context.Context, userID, id string, quality int) (*internal.SleepLog, error) {
	row := p.pool.QueryRow(ctx, `UPDATE sleep_logs SET quality = $3 WHERE user_id = $1 AND id = $2 RETURNING `+sleepLogColumns, userID, id, quality)
	l, err := scanSleepLog(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.logger.Errorf("failed to update sleep quality: %v", err)
		}
		return nil, notFound(err)
	}
	return l, nil
}

func (p *PostgresStorage) ListSleepLogs(ctx context.Context, userID string) ([]internal.SleepLog, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+sleepLogColumns+` FROM sleep_logs WHERE user_id = $1 ORDER BY start_time DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query sleep logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	logs := []internal.SleepLog{}
	for rows.Next() {
		l, err := scanSleepLog(rows)
		if err != nil {
			p.logger.Errorf("failed to scan sleep log: %v", err)
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// --- ActiveSleepRepository ---
func (p *PostgresStorage) StartActive(ctx context.Context, active *internal.ActiveSleep) error {
	tag, err := p.pool.Exec(ctx, `INSERT INTO active_sleeps (user_id, start_time, created_at) VALUES ($1, $2, $3) ON CONFLICT (user_id) DO NOTHING`,
		active.UserID, active.StartTime, active.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert active sleep: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrActiveSleepExists
	}
	return nil
}

func (p *PostgresStorage) GetActive(ctx context.Context, userID string) (*internal.ActiveSleep, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, start_time, created_at FROM active_sleeps WHERE user_id = $1`, userID)
	var a internal.ActiveSleep
	if err := row.Scan(&a.UserID, &a.StartTime, &a.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (p *PostgresStorage) ClearActive(ctx context.Context, userID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM active_sleeps WHERE user_id = $1`, userID)
	if err != nil {
		p.logger.Errorf("failed to delete active sleep: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM active_sleeps`).Scan(&n); err != nil {
		p.logger.Errorf("failed to count active sleeps: %v", err)
		return 0, err
	}
	return n, nil
}

// --- PatternRepository ---
func (p *PostgresStorage) SavePattern(ctx context.Context, s *internal.PatternSnapshot) error {
	issues := s.Issues
	if issues == nil {
		issues = []string{}
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO user_patterns (user_id, pattern, issues, session_count, analyzed_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET pattern = EXCLUDED.pattern, issues = EXCLUDED.issues,
		session_count = EXCLUDED.session_count, analyzed_at = EXCLUDED.analyzed_at`,
		s.UserID, s.Pattern, issues, s.SessionCount, s.AnalyzedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert pattern: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetPattern(ctx context.Context, userID string) (*internal.PatternSnapshot, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, pattern, issues, session_count, analyzed_at FROM user_patterns WHERE user_id = $1`, userID)
	var s internal.PatternSnapshot
	if err := row.Scan(&s.UserID, &s.Pattern, &s.Issues, &s.SessionCount, &s.AnalyzedAt); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// --- Compile-time assertions ---
var _ SleepLogRepository = (*PostgresStorage)(nil)
var _ ActiveSleepRepository = (*PostgresStorage)(nil)
var _ PatternRepository = (*PostgresStorage)(nil)
