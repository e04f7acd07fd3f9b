package analysis

// Averages are the aggregate statistics the classifier works from.
//
// Hours of day are averaged linearly: 23:30 and 00:30 average to 12:00, not
// midnight. Existing behaviour depends on this, so it is kept as is.
type Averages struct {
	SleepHour   float64  `json:"avg_sleep_hour"`
	WakeHour    float64  `json:"avg_wake_hour"`
	Duration    float64  `json:"avg_duration"`
	Quality     *float64 `json:"avg_quality,omitempty"`
	SampleCount int      `json:"sample_count"`
	RatedCount  int      `json:"rated_count"`
}

// ComputeAverages averages over all records; quality only over rated ones.
func ComputeAverages(records []Record) Averages {
	avg := Averages{SampleCount: len(records)}
	if len(records) == 0 {
		return avg
	}

	var sleep, wake, duration float64
	qualitySum := 0
	for _, r := range records {
		sleep += hourOfDay(r.Start)
		wake += hourOfDay(r.End)
		duration += r.DurationHours
		if r.Quality != nil {
			qualitySum += *r.Quality
			avg.RatedCount++
		}
	}

	n := float64(len(records))
	avg.SleepHour = sleep / n
	avg.WakeHour = wake / n
	avg.Duration = duration / n
	if avg.RatedCount > 0 {
		q := float64(qualitySum) / float64(avg.RatedCount)
		avg.Quality = &q
	}
	return avg
}

// Classify buckets records into one of the fixed archetypes.
func Classify(records []Record, th Thresholds) Profile {
	if len(records) < th.MinRecordsForPattern {
		return ProfileFor(Irregular)
	}
	return ProfileFor(classifyAverages(ComputeAverages(records), th))
}

// classifyAverages applies the rules in priority order; the first match wins.
func classifyAverages(avg Averages, th Thresholds) PatternKey {
	switch {
	case avg.SleepHour < th.EarlySleepBefore && avg.WakeHour < th.EarlyWakeBefore:
		return EarlyBird
	case avg.SleepHour >= th.LateSleepFrom || avg.WakeHour >= th.LateWakeFrom:
		return NightOwl
	case avg.Duration >= th.GoodDurationMin && avg.Duration <= th.GoodDurationMax:
		return GoodSleeper
	default:
		return Irregular
	}
}
