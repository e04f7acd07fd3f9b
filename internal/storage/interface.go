package storage

import (
	"context"
	"errors"

	"github.com/hrcadm/cadencecase/internal"
)

var (
	ErrNotFound          = errors.New("storage: not found")
	ErrActiveSleepExists = errors.New("storage: active sleep already exists")
)

// SleepLogRepository stores completed sessions. ListSleepLogs returns a user's
// logs newest first.
type SleepLogRepository interface {
	SaveSleepLog(ctx context.Context, log *internal.SleepLog) error
	GetSleepLog(ctx context.Context, userID, id string) (*internal.SleepLog, error)
	UpdateQuality(ctx context.Context, userID, id string, quality int) (*internal.SleepLog, error)
	ListSleepLogs(ctx context.Context, userID string) ([]internal.SleepLog, error)
}

// ActiveSleepRepository tracks at most one in-progress session per user.
type ActiveSleepRepository interface {
	StartActive(ctx context.Context, active *internal.ActiveSleep) error
	GetActive(ctx context.Context, userID string) (*internal.ActiveSleep, error)
	ClearActive(ctx context.Context, userID string) error
	CountActive(ctx context.Context) (int, error)
}

type PatternRepository interface {
	SavePattern(ctx context.Context, snapshot *internal.PatternSnapshot) error
	GetPattern(ctx context.Context, userID string) (*internal.PatternSnapshot, error)
}
