package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hrcadm/cadencecase/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

type backend struct {
	name string
	open func(t *testing.T) *Repositories
}

func backends() []backend {
	return []backend{
		{"file", func(t *testing.T) *Repositories {
			dir := t.TempDir()
			repos, err := NewFileRepositories(
				filepath.Join(dir, "sleep.json"),
				filepath.Join(dir, "active.json"),
				filepath.Join(dir, "patterns.json"),
				internal.NewNopLogger(),
			)
			require.NoError(t, err)
			t.Cleanup(func() { _ = repos.Close() })
			return repos
		}},
		{"sqlite", func(t *testing.T) *Repositories {
			repos, err := NewSQLiteRepositories(":memory:", internal.NewNopLogger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = repos.Close() })
			return repos
		}},
	}
}

func newLog(id, userID string, start time.Time, hours float64, quality *int) *internal.SleepLog {
	return &internal.SleepLog{
		ID:            id,
		UserID:        userID,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(hours * float64(time.Hour))),
		DurationHours: hours,
		Quality:       quality,
		CreatedAt:     start,
	}
}

func TestSleepLogRepository(t *testing.T) {
	base := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repos := b.open(t)
			ctx := context.Background()

			require.NoError(t, repos.Sleep.SaveSleepLog(ctx, newLog("l1", "u1", base, 8, intPtr(4))))
			require.NoError(t, repos.Sleep.SaveSleepLog(ctx, newLog("l3", "u1", base.AddDate(0, 0, 2), 6.5, nil)))
			require.NoError(t, repos.Sleep.SaveSleepLog(ctx, newLog("l2", "u1", base.AddDate(0, 0, 1), 7, intPtr(2))))
			require.NoError(t, repos.Sleep.SaveSleepLog(ctx, newLog("x1", "u2", base, 9, nil)))

			logs, err := repos.Sleep.ListSleepLogs(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, logs, 3)
			assert.Equal(t, []string{"l3", "l2", "l1"}, []string{logs[0].ID, logs[1].ID, logs[2].ID})
			assert.Nil(t, logs[0].Quality)
			require.NotNil(t, logs[2].Quality)
			assert.Equal(t, 4, *logs[2].Quality)
			assert.True(t, logs[2].StartTime.Equal(base))
			assert.Equal(t, 23, logs[2].StartTime.Hour())

			empty, err := repos.Sleep.ListSleepLogs(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)

			updated, err := repos.Sleep.UpdateQuality(ctx, "u1", "l3", 5)
			require.NoError(t, err)
			require.NotNil(t, updated.Quality)
			assert.Equal(t, 5, *updated.Quality)

			got, err := repos.Sleep.GetSleepLog(ctx, "u1", "l3")
			require.NoError(t, err)
			assert.Equal(t, 5, *got.Quality)

			_, err = repos.Sleep.GetSleepLog(ctx, "u2", "l3")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = repos.Sleep.UpdateQuality(ctx, "u1", "missing", 3)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestActiveSleepRepository(t *testing.T) {
	start := time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repos := b.open(t)
			ctx := context.Background()

			_, err := repos.Active.GetActive(ctx, "u1")
			assert.ErrorIs(t, err, ErrNotFound)

			active := &internal.ActiveSleep{UserID: "u1", StartTime: start, CreatedAt: start}
			require.NoError(t, repos.Active.StartActive(ctx, active))
			assert.ErrorIs(t, repos.Active.StartActive(ctx, active), ErrActiveSleepExists)

			got, err := repos.Active.GetActive(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, got.StartTime.Equal(start))

			require.NoError(t, repos.Active.StartActive(ctx, &internal.ActiveSleep{UserID: "u2", StartTime: start, CreatedAt: start}))
			n, err := repos.Active.CountActive(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, repos.Active.ClearActive(ctx, "u1"))
			assert.ErrorIs(t, repos.Active.ClearActive(ctx, "u1"), ErrNotFound)
		})
	}
}

func TestPatternRepository(t *testing.T) {
	at := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repos := b.open(t)
			ctx := context.Background()

			_, err := repos.Patterns.GetPattern(ctx, "u1")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, repos.Patterns.SavePattern(ctx, &internal.PatternSnapshot{
				UserID: "u1", Pattern: "irregular", SessionCount: 2, AnalyzedAt: at,
			}))
			require.NoError(t, repos.Patterns.SavePattern(ctx, &internal.PatternSnapshot{
				UserID: "u1", Pattern: "night_owl", Issues: []string{"late_bedtime"}, SessionCount: 4, AnalyzedAt: at,
			}))

			got, err := repos.Patterns.GetPattern(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "night_owl", got.Pattern)
			assert.Equal(t, []string{"late_bedtime"}, got.Issues)
			assert.Equal(t, 4, got.SessionCount)
			assert.True(t, got.AnalyzedAt.Equal(at))
		})
	}
}

func TestFileStorage_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	sleepFile := filepath.Join(dir, "sleep.json")
	activeFile := filepath.Join(dir, "active.json")
	patternFile := filepath.Join(dir, "patterns.json")
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 23, 0, 0, 0, time.FixedZone("MSK", 3*60*60))

	s, err := NewFileStorage(sleepFile, activeFile, patternFile, internal.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, s.SaveSleepLog(ctx, newLog("l1", "u1", start, 8, intPtr(3))))
	require.NoError(t, s.StartActive(ctx, &internal.ActiveSleep{UserID: "u1", StartTime: start}))
	require.NoError(t, s.SavePattern(ctx, &internal.PatternSnapshot{UserID: "u1", Pattern: "good_sleeper"}))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	reopened, err := NewFileStorage(sleepFile, activeFile, patternFile, internal.NewNopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	logs, err := reopened.ListSleepLogs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 3, *logs[0].Quality)
	assert.Equal(t, 23, logs[0].StartTime.Hour())

	_, err = reopened.GetActive(ctx, "u1")
	assert.NoError(t, err)
	p, err := reopened.GetPattern(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "good_sleeper", p.Pattern)
}

func TestFileStorage_UpdateQualityDuringSave(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(
		filepath.Join(dir, "sleep.json"),
		filepath.Join(dir, "active.json"),
		filepath.Join(dir, "patterns.json"),
		internal.NewNopLogger(),
	)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprintf("l%02d", i)
		require.NoError(t, s.SaveSleepLog(ctx, newLog(ids[i], "u1", base.AddDate(0, 0, i), 8, nil)))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 20 {
			assert.NoError(t, s.saveSleepLogs())
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 200 {
			_, err := s.UpdateQuality(ctx, "u1", ids[i%len(ids)], i%5+1)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	logs, err := s.ListSleepLogs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, logs, len(ids))
	for _, l := range logs {
		require.NotNil(t, l.Quality, l.ID)
	}
	got, err := s.GetSleepLog(ctx, "u1", ids[49])
	require.NoError(t, err)
	assert.Equal(t, 5, *got.Quality) // last write to l49 is i=199
}

func TestFileStorage_ReturnsCopies(t *testing.T) {
	repos := backends()[0].open(t)
	ctx := context.Background()
	log := newLog("l1", "u1", time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC), 8, nil)
	require.NoError(t, repos.Sleep.SaveSleepLog(ctx, log))

	log.Notes = "mutated after save"
	got, err := repos.Sleep.GetSleepLog(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Empty(t, got.Notes)
}
