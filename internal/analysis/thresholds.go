package analysis

// Thresholds holds every tunable edge the analyzer uses. Advice buckets (6.5/9.5h)
// and issue edges (6/10h) differ.
type Thresholds struct {
	MinRecordsForPattern int

	EarlySleepBefore float64
	EarlyWakeBefore  float64
	LateSleepFrom    float64
	LateWakeFrom     float64
	GoodDurationMin  float64
	GoodDurationMax  float64

	LateBedtimeHour int
	DeficitBelow    float64
	OversleepAbove  float64
	PoorQualityMax  int
	MaxIssues       int

	IncreaseDurationBelow float64
	ReduceDurationAbove   float64
	LowQualityBelow       float64
	HighQualityFrom       float64

	StarCap int
	BarCap  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRecordsForPattern: 3,

		EarlySleepBefore: 22,
		EarlyWakeBefore:  7,
		LateSleepFrom:    23,
		LateWakeFrom:     9,
		GoodDurationMin:  7,
		GoodDurationMax:  9,

		LateBedtimeHour: 23,
		DeficitBelow:    6,
		OversleepAbove:  10,
		PoorQualityMax:  2,
		MaxIssues:       3,

		IncreaseDurationBelow: 6.5,
		ReduceDurationAbove:   9.5,
		LowQualityBelow:       3,
		HighQualityFrom:       4,

		StarCap: 5,
		BarCap:  10,
	}
}
