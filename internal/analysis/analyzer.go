package analysis

import "time"

// Analyzer binds a threshold set and a tip source to the package functions.
type Analyzer struct {
	th     Thresholds
	picker TipPicker
}

// NewAnalyzer returns an Analyzer. A nil picker gets a time-seeded RandPicker.
func NewAnalyzer(th Thresholds, picker TipPicker) *Analyzer {
	if picker == nil {
		picker = NewRandPicker(uint64(time.Now().UnixNano()))
	}
	return &Analyzer{th: th, picker: picker}
}

func (a *Analyzer) Thresholds() Thresholds { return a.th }

func (a *Analyzer) Classify(records []Record) Profile {
	return Classify(records, a.th)
}

func (a *Analyzer) DetectIssues(records []Record) []IssueTag {
	return DetectIssues(records, a.th)
}

func (a *Analyzer) ComposeAdvice(in AdviceInput) string {
	return ComposeAdvice(in, a.th, a.picker)
}

func (a *Analyzer) AggregateWeek(records []Record, weekStart, weekEnd time.Time) WeeklyReport {
	return AggregateWeek(records, weekStart, weekEnd, a.th)
}

func (a *Analyzer) QuickAnalysis(r Record) QuickVerdict {
	return QuickAnalysis(r, a.th)
}

func (a *Analyzer) RateSession(r Record) []string {
	return RateSession(r, a.th)
}

// Result is the full analysis of a record set.
type Result struct {
	Profile    Profile    `json:"pattern"`
	Issues     []IssueTag `json:"issues"`
	Averages   Averages   `json:"averages"`
	Advice     string     `json:"advice"`
	Forecast   []string   `json:"forecast,omitempty"`
	Sufficient bool       `json:"sufficient"`
}

// Analyze validates records and runs classifier, issue detector and advice
// composer in one pass.
func (a *Analyzer) Analyze(records []Record) (Result, error) {
	if err := ValidateAll(records); err != nil {
		return Result{}, err
	}

	avg := ComputeAverages(records)
	res := Result{
		Profile:    a.Classify(records),
		Issues:     a.DetectIssues(records),
		Averages:   avg,
		Sufficient: avg.SampleCount >= a.th.MinRecordsForPattern,
	}
	res.Advice = a.ComposeAdvice(AdviceInput{
		Profile:     res.Profile,
		Issues:      res.Issues,
		AvgDuration: avg.Duration,
		AvgQuality:  avg.Quality,
		SampleCount: avg.SampleCount,
	})
	if res.Sufficient {
		res.Forecast = Forecast(res.Profile.Key)
	}
	return res, nil
}
