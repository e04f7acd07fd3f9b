package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateWeek_EmptyIsNoData(t *testing.T) {
	r := AggregateWeek(nil, at(1, 0, 0), at(7, 0, 0), DefaultThresholds())
	assert.True(t, r.NoData)
	assert.Zero(t, r.Count)
	assert.Nil(t, r.AvgQuality)
	assert.Empty(t, r.Days)
	assert.Contains(t, RenderWeekly(r), "No data for this week")
}

func TestAggregateWeek_FiltersInclusiveByDate(t *testing.T) {
	records := []Record{
		session(1, 22, 0, 2, 6, 0, Quality(4)), // first day, included
		session(7, 23, 0, 8, 7, 0, Quality(2)), // last day, included
		session(8, 22, 0, 9, 6, 0, Quality(5)), // after range
		session(1, 1, 0, 1, 9, 0, Quality(1)),  // early on the first day
	}
	r := AggregateWeek(records, at(1, 12, 0), at(7, 8, 0), DefaultThresholds())
	require.False(t, r.NoData)
	assert.Equal(t, 3, r.Count)
	assert.InDelta(t, 24.0, r.TotalHours, 1e-9)
	require.NotNil(t, r.AvgQuality)
	assert.InDelta(t, 7.0/3.0, *r.AvgQuality, 1e-9)
	assert.Equal(t, VerdictNeedsWork, r.Verdict)

	require.Len(t, r.Days, 2)
	assert.Equal(t, at(1, 0, 0), r.Days[0].Date)
	assert.Equal(t, 2, r.Days[0].Sessions)
	assert.InDelta(t, 16.0, r.Days[0].Hours, 1e-9)
	assert.Equal(t, 10, r.Days[0].Bars)
	assert.Equal(t, at(7, 0, 0), r.Days[1].Date)
}

func TestAggregateWeek_ClampsBarsAndStars(t *testing.T) {
	records := []Record{NewRecord(at(3, 18, 0), at(4, 9, 0), Quality(5))}
	r := AggregateWeek(records, at(1, 0, 0), at(7, 0, 0), DefaultThresholds())
	require.Len(t, r.Days, 1)
	assert.InDelta(t, 15.0, r.Days[0].Hours, 1e-9)
	assert.Equal(t, 10, r.Days[0].Bars)
	assert.Equal(t, 5, r.Days[0].Stars)
	assert.Equal(t, VerdictExcellent, r.Verdict)
}

func TestAggregateWeek_QualityIgnoresUnrated(t *testing.T) {
	records := []Record{
		session(2, 22, 0, 3, 6, 0, Quality(4)),
		session(3, 22, 0, 4, 6, 0, nil),
		session(4, 22, 0, 5, 6, 0, Quality(2)),
	}
	r := AggregateWeek(records, at(1, 0, 0), at(7, 0, 0), DefaultThresholds())
	require.NotNil(t, r.AvgQuality)
	assert.InDelta(t, 3.0, *r.AvgQuality, 1e-9)
	assert.Equal(t, VerdictGood, r.Verdict)
	assert.Equal(t, 0, r.Days[1].Stars)
	assert.Nil(t, r.Days[1].AvgQuality)
}

func TestAggregateWeek_AllUnrated(t *testing.T) {
	records := []Record{session(2, 22, 0, 3, 6, 0, nil)}
	r := AggregateWeek(records, at(1, 0, 0), at(7, 0, 0), DefaultThresholds())
	assert.Nil(t, r.AvgQuality)
	assert.Equal(t, VerdictUnrated, r.Verdict)
}

func TestAggregateWeek_UsesWeekStartLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC on the 7th is 01:30 on the 8th in UTC+3.
	records := []Record{NewRecord(at(7, 22, 30), at(8, 5, 30), nil)}
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, loc)
	to := time.Date(2024, time.January, 7, 0, 0, 0, 0, loc)

	r := AggregateWeek(records, from, to, DefaultThresholds())
	assert.True(t, r.NoData)
}

func TestRenderWeekly(t *testing.T) {
	records := []Record{NewRecord(at(3, 18, 0), at(4, 9, 0), Quality(4))}
	out := RenderWeekly(AggregateWeek(records, at(1, 0, 0), at(7, 0, 0), DefaultThresholds()))
	assert.Contains(t, out, "Wed 03.01")
	assert.Contains(t, out, "██████████ ★★★★")
	assert.NotContains(t, out, "███████████")
	assert.Contains(t, out, "• Sessions: 1")
	assert.Contains(t, out, "Excellent week!")
}

func TestQuickAnalysis(t *testing.T) {
	th := DefaultThresholds()

	v := QuickAnalysis(session(1, 21, 0, 2, 6, 30, nil), th)
	assert.Equal(t, QuickVerdict{Bedtime: "early", Duration: "long", Wake: "early", Hours: 9.5}, v)

	v = QuickAnalysis(session(1, 23, 0, 2, 7, 0, nil), th)
	assert.Equal(t, "late", v.Bedtime)
	assert.Equal(t, "normal", v.Duration)
	assert.Equal(t, "ideal", v.Wake)

	v = QuickAnalysis(session(2, 3, 0, 2, 8, 0, nil), th)
	assert.Equal(t, "early", v.Bedtime)
	assert.Equal(t, "short", v.Duration)
}

func TestRateSession(t *testing.T) {
	th := DefaultThresholds()

	tips := RateSession(session(1, 23, 30, 2, 4, 0, Quality(1)), th)
	assert.Len(t, tips, 3)
	assert.Contains(t, tips[0], "Short sleep")

	tips = RateSession(session(1, 22, 0, 2, 6, 0, Quality(3)), th)
	assert.Equal(t, []string{"Sleep within the normal range", "Keep tracking for a better analysis"}, tips)

	tips = RateSession(session(1, 22, 0, 2, 6, 0, Quality(5)), th)
	assert.Equal(t, []string{"Great result! Keep following your routine"}, tips)
}

func TestTipsAndForecast(t *testing.T) {
	for _, c := range TipCategories() {
		tips, err := TipsFor(c)
		assert.NoError(t, err)
		assert.NotEmpty(t, tips)
	}
	_, err := TipsFor("nope")
	assert.ErrorIs(t, err, ErrUnknownTipCategory)

	for _, k := range PatternKeys() {
		assert.Len(t, Forecast(k), 4)
	}
	assert.Equal(t, Forecast(Irregular), Forecast("nope"))
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds(), FixedPicker(0))

	res, err := a.Analyze(repeat(session(1, 23, 30, 2, 7, 0, Quality(4)), 3))
	require.NoError(t, err)
	assert.Equal(t, NightOwl, res.Profile.Key)
	assert.Equal(t, []IssueTag{LateBedtime}, res.Issues)
	assert.True(t, res.Sufficient)
	assert.NotEmpty(t, res.Forecast)
	assert.Contains(t, res.Advice, GenericTips()[0])

	again, err := a.Analyze(repeat(session(1, 23, 30, 2, 7, 0, Quality(4)), 3))
	require.NoError(t, err)
	assert.Equal(t, res, again)

	res, err = a.Analyze(repeat(session(1, 22, 0, 2, 6, 0, nil), 2))
	require.NoError(t, err)
	assert.False(t, res.Sufficient)
	assert.Equal(t, InsufficientDataAdvice(), res.Advice)
	assert.Nil(t, res.Forecast)

	_, err = a.Analyze([]Record{NewRecord(at(2, 0, 0), at(1, 0, 0), nil)})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
