package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hrcadm/cadencecase/internal"
	"github.com/hrcadm/cadencecase/internal/analysis"
	"github.com/hrcadm/cadencecase/internal/metrics"
	"github.com/hrcadm/cadencecase/internal/storage"
)

var validate = validator.New()

var (
	ErrSleepAlreadyActive = errors.New("sleep already in progress")
	ErrNoActiveSleep      = errors.New("no sleep in progress")
	ErrSleepNotFound      = errors.New("sleep log not found")
)

type SleepLogRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Quality   *int      `json:"quality,omitempty" validate:"omitempty,gte=1,lte=5"`
	Notes     string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type QualityRequest struct {
	Quality int `json:"quality" validate:"required,gte=1,lte=5"`
}

func ValidateSleepLogRequest(body *SleepLogRequest) error {
	return validate.Struct(body)
}

func ValidateQualityRequest(body *QualityRequest) error {
	return validate.Struct(body)
}

func CreateSleepLog(ctx context.Context, sleepRepo storage.SleepLogRepository, user *internal.User, body *SleepLogRequest, now time.Time) (*internal.SleepLog, error) {
	log := &internal.SleepLog{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		StartTime:     body.StartTime,
		EndTime:       body.EndTime,
		DurationHours: body.EndTime.Sub(body.StartTime).Hours(),
		Quality:       body.Quality,
		Notes:         body.Notes,
		CreatedAt:     now,
	}
	if err := sleepRepo.SaveSleepLog(ctx, log); err != nil {
		return nil, err
	}
	metrics.NewMetrics().RecordSession("manual")
	return log, nil
}

// StartSleep opens a session for user at the given time.
func StartSleep(ctx context.Context, activeRepo storage.ActiveSleepRepository, user *internal.User, at time.Time) (*internal.ActiveSleep, error) {
	active := &internal.ActiveSleep{UserID: user.ID, StartTime: at, CreatedAt: at}
	if err := activeRepo.StartActive(ctx, active); err != nil {
		if errors.Is(err, storage.ErrActiveSleepExists) {
			return nil, ErrSleepAlreadyActive
		}
		return nil, err
	}
	metrics.NewMetrics().SleepStarted()
	return active, nil
}

type EndSleepResult struct {
	Log   *internal.SleepLog     `json:"log"`
	Quick analysis.QuickVerdict `json:"quick_analysis"`
}

// EndSleep closes the user's open session, stores it as a log and returns a
// quick verdict for it. The active session is cleared before the log is saved
// and restored if the save fails, so a retried end never stores a duplicate.
func EndSleep(ctx context.Context, activeRepo storage.ActiveSleepRepository, sleepRepo storage.SleepLogRepository, a *analysis.Analyzer, user *internal.User, at time.Time) (*EndSleepResult, error) {
	active, err := activeRepo.GetActive(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveSleep
		}
		return nil, err
	}

	record := analysis.NewRecord(active.StartTime, at, nil)
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := activeRepo.ClearActive(ctx, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// ended concurrently by another request
			return nil, ErrNoActiveSleep
		}
		return nil, fmt.Errorf("clearing active sleep: %w", err)
	}

	log := &internal.SleepLog{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		StartTime:     active.StartTime,
		EndTime:       at,
		DurationHours: record.DurationHours,
		CreatedAt:     at,
	}
	if err := sleepRepo.SaveSleepLog(ctx, log); err != nil {
		if restoreErr := activeRepo.StartActive(ctx, active); restoreErr != nil {
			return nil, errors.Join(fmt.Errorf("saving sleep log: %w", err), fmt.Errorf("restoring active sleep: %w", restoreErr))
		}
		return nil, fmt.Errorf("saving sleep log: %w", err)
	}
	m := metrics.NewMetrics()
	m.RecordSession("tracked")
	m.SleepEnded()

	return &EndSleepResult{Log: log, Quick: a.QuickAnalysis(record)}, nil
}

// SeedActiveSleepGauge sets the active-sleep gauge from the persisted sessions.
func SeedActiveSleepGauge(ctx context.Context, activeRepo storage.ActiveSleepRepository) error {
	n, err := activeRepo.CountActive(ctx)
	if err != nil {
		return fmt.Errorf("counting active sleeps: %w", err)
	}
	metrics.NewMetrics().SetActiveSleeps(n)
	return nil
}

type RateSleepResult struct {
	Log      *internal.SleepLog `json:"log"`
	Feedback []string           `json:"feedback"`
}

// RateSleep stores a 1–5 rating on an existing log and returns feedback for it.
func RateSleep(ctx context.Context, sleepRepo storage.SleepLogRepository, a *analysis.Analyzer, user *internal.User, id string, body *QualityRequest) (*RateSleepResult, error) {
	log, err := sleepRepo.UpdateQuality(ctx, user.ID, id, body.Quality)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSleepNotFound
		}
		return nil, err
	}
	return &RateSleepResult{Log: log, Feedback: a.RateSession(ToRecord(*log))}, nil
}

func ToRecord(l internal.SleepLog) analysis.Record {
	return analysis.Record{
		Start:         l.StartTime,
		End:           l.EndTime,
		DurationHours: l.DurationHours,
		Quality:       l.Quality,
	}
}

func ToRecords(logs []internal.SleepLog) []analysis.Record {
	records := make([]analysis.Record, len(logs))
	for i, l := range logs {
		records[i] = ToRecord(l)
	}
	return records
}

// SortNewestFirst orders logs by start time, newest first.
func SortNewestFirst(logs []internal.SleepLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].StartTime.After(logs[j].StartTime)
	})
}

// RecentRated returns up to limit rated logs, newest first.
func RecentRated(logs []internal.SleepLog, limit int) []internal.SleepLog {
	sorted := append([]internal.SleepLog(nil), logs...)
	SortNewestFirst(sorted)
	rated := make([]internal.SleepLog, 0, limit)
	for _, l := range sorted {
		if l.Quality == nil {
			continue
		}
		rated = append(rated, l)
		if len(rated) == limit {
			break
		}
	}
	return rated
}
