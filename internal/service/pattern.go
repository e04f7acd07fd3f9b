package service

import (
	"context"
	"time"

	"github.com/hrcadm/cadencecase/internal"
	"github.com/hrcadm/cadencecase/internal/analysis"
	"github.com/hrcadm/cadencecase/internal/metrics"
	"github.com/hrcadm/cadencecase/internal/storage"
)

const recentLogsInStats = 5

type SleepStats struct {
	NoData     bool                `json:"no_data"`
	Count      int                 `json:"count"`
	AvgHours   float64             `json:"avg_hours"`
	MinHours   float64             `json:"min_hours"`
	MaxHours   float64             `json:"max_hours"`
	AvgQuality *float64            `json:"avg_quality,omitempty"`
	Pattern    analysis.Profile    `json:"pattern"`
	Recent     []internal.SleepLog `json:"recent"`
}

// CalculateSleepStats summarizes rated logs. The pattern is classified over
// the newest window rated logs only.
func CalculateSleepStats(logs []internal.SleepLog, a *analysis.Analyzer, window int) SleepStats {
	rated := RecentRated(logs, len(logs))
	if len(rated) == 0 {
		return SleepStats{NoData: true, Pattern: analysis.ProfileFor(analysis.Irregular), Recent: []internal.SleepLog{}}
	}

	stats := SleepStats{
		Count:    len(rated),
		MinHours: rated[0].DurationHours,
		MaxHours: rated[0].DurationHours,
	}
	var totalHours, totalQuality float64
	for _, l := range rated {
		totalHours += l.DurationHours
		totalQuality += float64(*l.Quality)
		stats.MinHours = min(stats.MinHours, l.DurationHours)
		stats.MaxHours = max(stats.MaxHours, l.DurationHours)
	}
	stats.AvgHours = totalHours / float64(len(rated))
	avgQ := totalQuality / float64(len(rated))
	stats.AvgQuality = &avgQ

	if window > len(rated) {
		window = len(rated)
	}
	stats.Pattern = a.Classify(ToRecords(rated[:window]))
	stats.Recent = rated[:min(recentLogsInStats, len(rated))]
	return stats
}

type AnalysisReport struct {
	analysis.Result
	Snapshot *internal.PatternSnapshot `json:"snapshot"`
}

// AnalyzeSleep runs the full analysis over the user's newest window rated logs
// and stores the resulting pattern snapshot.
func AnalyzeSleep(ctx context.Context, sleepRepo storage.SleepLogRepository, patternRepo storage.PatternRepository, a *analysis.Analyzer, user *internal.User, window int, now time.Time) (*AnalysisReport, error) {
	logs, err := sleepRepo.ListSleepLogs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	rated := RecentRated(logs, window)
	result, err := a.Analyze(ToRecords(rated))
	if err != nil {
		return nil, err
	}

	issues := make([]string, len(result.Issues))
	for i, tag := range result.Issues {
		issues[i] = string(tag)
	}
	snapshot := &internal.PatternSnapshot{
		UserID:       user.ID,
		Pattern:      string(result.Profile.Key),
		Issues:       issues,
		SessionCount: len(rated),
		AnalyzedAt:   now,
	}
	if err := patternRepo.SavePattern(ctx, snapshot); err != nil {
		return nil, err
	}
	metrics.NewMetrics().RecordAnalysis(snapshot.Pattern, issues)

	return &AnalysisReport{Result: result, Snapshot: snapshot}, nil
}

// BuildWeeklyReport aggregates the seven days ending at now, in now's location.
func BuildWeeklyReport(logs []internal.SleepLog, a *analysis.Analyzer, now time.Time) analysis.WeeklyReport {
	return a.AggregateWeek(ToRecords(logs), now.AddDate(0, 0, -7), now)
}
