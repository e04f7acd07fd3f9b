package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hrcadm/cadencecase/internal"
	"github.com/hrcadm/cadencecase/internal/analysis"
	"github.com/hrcadm/cadencecase/internal/metrics"
	"github.com/hrcadm/cadencecase/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = &internal.User{ID: "u1", Name: "Test User"}

func newRepos(t *testing.T) *storage.Repositories {
	repos, err := storage.NewSQLiteRepositories(":memory:", internal.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func newAnalyzer() *analysis.Analyzer {
	return analysis.NewAnalyzer(analysis.DefaultThresholds(), analysis.FixedPicker(0))
}

func night(day, hour, minute int, hours float64, quality *int) *SleepLogRequest {
	start := time.Date(2024, time.January, day, hour, minute, 0, 0, time.UTC)
	return &SleepLogRequest{
		StartTime: start,
		EndTime:   start.Add(time.Duration(hours * float64(time.Hour))),
		Quality:   quality,
	}
}

func TestValidateSleepLogRequest(t *testing.T) {
	assert.NoError(t, ValidateSleepLogRequest(night(1, 23, 0, 8, nil)))
	assert.NoError(t, ValidateSleepLogRequest(night(1, 23, 0, 8, analysis.Quality(5))))

	assert.Error(t, ValidateSleepLogRequest(night(1, 23, 0, 8, analysis.Quality(6))))
	assert.Error(t, ValidateSleepLogRequest(night(1, 23, 0, 8, analysis.Quality(0))))

	backwards := night(1, 23, 0, 8, nil)
	backwards.StartTime, backwards.EndTime = backwards.EndTime, backwards.StartTime
	assert.Error(t, ValidateSleepLogRequest(backwards))

	assert.Error(t, ValidateQualityRequest(&QualityRequest{Quality: 0}))
	assert.NoError(t, ValidateQualityRequest(&QualityRequest{Quality: 3}))
}

func TestCreateSleepLog_ComputesDuration(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	now := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)

	log, err := CreateSleepLog(ctx, repos.Sleep, testUser, night(1, 23, 0, 7.5, analysis.Quality(4)), now)
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	assert.Equal(t, "u1", log.UserID)
	assert.InDelta(t, 7.5, log.DurationHours, 1e-9)
	assert.True(t, log.CreatedAt.Equal(now))

	stored, err := repos.Sleep.GetSleepLog(ctx, "u1", log.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *stored.Quality)
}

func TestStartEndSleep(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	a := newAnalyzer()
	start := time.Date(2024, time.January, 1, 21, 30, 0, 0, time.UTC)

	_, err := EndSleep(ctx, repos.Active, repos.Sleep, a, testUser, start)
	assert.ErrorIs(t, err, ErrNoActiveSleep)

	_, err = StartSleep(ctx, repos.Active, testUser, start)
	require.NoError(t, err)
	_, err = StartSleep(ctx, repos.Active, testUser, start.Add(time.Minute))
	assert.ErrorIs(t, err, ErrSleepAlreadyActive)

	res, err := EndSleep(ctx, repos.Active, repos.Sleep, a, testUser, start.Add(8*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 8.0, res.Log.DurationHours, 1e-9)
	assert.Nil(t, res.Log.Quality)
	assert.Equal(t, analysis.QuickVerdict{Bedtime: "early", Duration: "normal", Wake: "early", Hours: 8}, res.Quick)

	_, err = repos.Active.GetActive(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	logs, err := repos.Sleep.ListSleepLogs(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestEndSleep_RejectsEndBeforeStart(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 1, 23, 0, 0, 0, time.UTC)

	_, err := StartSleep(ctx, repos.Active, testUser, start)
	require.NoError(t, err)

	_, err = EndSleep(ctx, repos.Active, repos.Sleep, newAnalyzer(), testUser, start.Add(-time.Hour))
	assert.ErrorIs(t, err, analysis.ErrInvalidRecord)

	_, err = repos.Active.GetActive(ctx, "u1")
	assert.NoError(t, err, "failed end must keep the session open")
}

func TestRateSleep(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	a := newAnalyzer()

	_, err := RateSleep(ctx, repos.Sleep, a, testUser, "missing", &QualityRequest{Quality: 3})
	assert.ErrorIs(t, err, ErrSleepNotFound)

	log, err := CreateSleepLog(ctx, repos.Sleep, testUser, night(1, 23, 30, 5, nil), time.Now())
	require.NoError(t, err)

	res, err := RateSleep(ctx, repos.Sleep, a, testUser, log.ID, &QualityRequest{Quality: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, *res.Log.Quality)
	assert.Equal(t, []string{
		"Short sleep: your body did not have time to recover",
		"Going to bed late disrupts your circadian rhythm",
		"Try a dark room, white noise and a comfortable temperature",
	}, res.Feedback)

	other := &internal.User{ID: "u2"}
	_, err = RateSleep(ctx, repos.Sleep, a, other, log.ID, &QualityRequest{Quality: 5})
	assert.ErrorIs(t, err, ErrSleepNotFound)
}

func toLogs(reqs ...*SleepLogRequest) []internal.SleepLog {
	logs := make([]internal.SleepLog, len(reqs))
	for i, r := range reqs {
		logs[i] = internal.SleepLog{
			ID:            string(rune('a' + i)),
			UserID:        "u1",
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			DurationHours: r.EndTime.Sub(r.StartTime).Hours(),
			Quality:       r.Quality,
		}
	}
	return logs
}

func TestCalculateSleepStats(t *testing.T) {
	a := newAnalyzer()

	empty := CalculateSleepStats(toLogs(night(1, 23, 0, 8, nil)), a, 10)
	assert.True(t, empty.NoData)
	assert.Equal(t, analysis.Irregular, empty.Pattern.Key)

	logs := toLogs(
		night(1, 21, 0, 8, analysis.Quality(4)),
		night(2, 21, 0, 9, analysis.Quality(5)),
		night(3, 21, 0, 7, analysis.Quality(3)),
		night(4, 23, 0, 4, nil),
	)
	stats := CalculateSleepStats(logs, a, 10)
	assert.False(t, stats.NoData)
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 8.0, stats.AvgHours, 1e-9)
	assert.InDelta(t, 7.0, stats.MinHours, 1e-9)
	assert.InDelta(t, 9.0, stats.MaxHours, 1e-9)
	require.NotNil(t, stats.AvgQuality)
	assert.InDelta(t, 4.0, *stats.AvgQuality, 1e-9)
	assert.Equal(t, analysis.EarlyBird, stats.Pattern.Key)
	require.Len(t, stats.Recent, 3)
	assert.Equal(t, 3, stats.Recent[0].StartTime.Day(), "recent logs are newest first")

	// a window below the minimum sample size cannot classify
	assert.Equal(t, analysis.Irregular, CalculateSleepStats(logs, a, 2).Pattern.Key)
}

func TestAnalyzeSleep_NightOwlPersistsSnapshot(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	a := newAnalyzer()
	now := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

	for day := 1; day <= 4; day++ {
		_, err := CreateSleepLog(ctx, repos.Sleep, testUser, night(day, 23, 30, 7.5, analysis.Quality(4)), now)
		require.NoError(t, err)
	}
	// unrated sessions never reach the analysis
	_, err := CreateSleepLog(ctx, repos.Sleep, testUser, night(5, 20, 0, 12, nil), now)
	require.NoError(t, err)

	report, err := AnalyzeSleep(ctx, repos.Sleep, repos.Patterns, a, testUser, 20, now)
	require.NoError(t, err)
	assert.Equal(t, analysis.NightOwl, report.Profile.Key)
	assert.Equal(t, []analysis.IssueTag{analysis.LateBedtime}, report.Issues)
	assert.True(t, report.Sufficient)
	assert.NotEmpty(t, report.Forecast)
	assert.Contains(t, report.Advice, report.Profile.Name)

	snap, err := repos.Patterns.GetPattern(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "night_owl", snap.Pattern)
	assert.Equal(t, []string{"late_bedtime"}, snap.Issues)
	assert.Equal(t, 4, snap.SessionCount)
	assert.True(t, snap.AnalyzedAt.Equal(now))
}

func TestAnalyzeSleep_InsufficientData(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	report, err := AnalyzeSleep(ctx, repos.Sleep, repos.Patterns, newAnalyzer(), testUser, 20, time.Now())
	require.NoError(t, err)
	assert.False(t, report.Sufficient)
	assert.Equal(t, analysis.Irregular, report.Profile.Key)
	assert.Empty(t, report.Forecast)
	assert.Equal(t, 0, report.Snapshot.SessionCount)
}

func TestBuildWeeklyReport(t *testing.T) {
	a := newAnalyzer()
	now := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	logs := toLogs(
		night(9, 23, 0, 8, analysis.Quality(5)),
		night(8, 22, 0, 7, nil),
		night(1, 23, 0, 8, analysis.Quality(1)), // older than a week
	)

	report := BuildWeeklyReport(logs, a, now)
	assert.False(t, report.NoData)
	assert.Equal(t, 2, report.Count)
	assert.InDelta(t, 15.0, report.TotalHours, 1e-9)
	require.NotNil(t, report.AvgQuality)
	assert.InDelta(t, 5.0, *report.AvgQuality, 1e-9)
	require.Len(t, report.Days, 2)
	assert.Equal(t, 8, report.Days[0].Date.Day())

	assert.True(t, BuildWeeklyReport(nil, a, now).NoData)
}

type failingSleepRepo struct {
	storage.SleepLogRepository
}

func (failingSleepRepo) SaveSleepLog(ctx context.Context, log *internal.SleepLog) error {
	return errors.New("disk full")
}

type failingClearRepo struct {
	storage.ActiveSleepRepository
}

func (failingClearRepo) ClearActive(ctx context.Context, userID string) error {
	return errors.New("connection reset")
}

func TestEndSleep_SaveFailureKeepsSessionOpen(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	a := newAnalyzer()
	start := time.Date(2024, time.January, 1, 23, 0, 0, 0, time.UTC)

	_, err := StartSleep(ctx, repos.Active, testUser, start)
	require.NoError(t, err)

	_, err = EndSleep(ctx, repos.Active, failingSleepRepo{repos.Sleep}, a, testUser, start.Add(7*time.Hour))
	require.Error(t, err)

	active, err := repos.Active.GetActive(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, active.StartTime.Equal(start))

	// the retry stores exactly one log
	_, err = EndSleep(ctx, repos.Active, repos.Sleep, a, testUser, start.Add(7*time.Hour))
	require.NoError(t, err)
	logs, err := repos.Sleep.ListSleepLogs(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestEndSleep_ClearFailureStoresNothing(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 1, 23, 0, 0, 0, time.UTC)

	_, err := StartSleep(ctx, repos.Active, testUser, start)
	require.NoError(t, err)

	_, err = EndSleep(ctx, failingClearRepo{repos.Active}, repos.Sleep, newAnalyzer(), testUser, start.Add(7*time.Hour))
	require.Error(t, err)

	logs, err := repos.Sleep.ListSleepLogs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSeedActiveSleepGauge(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 1, 23, 0, 0, 0, time.UTC)

	for _, id := range []string{"u1", "u2", "u3"} {
		_, err := StartSleep(ctx, repos.Active, &internal.User{ID: id}, start)
		require.NoError(t, err)
	}
	metrics.NewMetrics().SetActiveSleeps(-4)

	require.NoError(t, SeedActiveSleepGauge(ctx, repos.Active))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.NewMetrics().ActiveSleepsOpen))
}
