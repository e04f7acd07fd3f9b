package analysis

// QuickVerdict labels a single session right after it ends.
type QuickVerdict struct {
	Bedtime  string  `json:"bedtime"`
	Duration string  `json:"duration"`
	Wake     string  `json:"wake"`
	Hours    float64 `json:"hours"`
}

// QuickAnalysis labels bedtime, length and wake time of one session.
func QuickAnalysis(r Record, th Thresholds) QuickVerdict {
	v := QuickVerdict{Hours: r.DurationHours}

	if float64(r.Start.Hour()) < th.EarlySleepBefore {
		v.Bedtime = "early"
	} else {
		v.Bedtime = "late"
	}

	switch {
	case r.DurationHours < th.DeficitBelow:
		v.Duration = "short"
	case r.DurationHours < th.GoodDurationMax:
		v.Duration = "normal"
	default:
		v.Duration = "long"
	}

	switch {
	case float64(r.End.Hour()) < th.EarlyWakeBefore:
		v.Wake = "early"
	case float64(r.End.Hour()) < th.LateWakeFrom:
		v.Wake = "ideal"
	default:
		v.Wake = "late"
	}
	return v
}

// RateSession returns feedback for one rated session.
func RateSession(r Record, th Thresholds) []string {
	var tips []string
	switch {
	case r.DurationHours < th.DeficitBelow:
		tips = append(tips, "Short sleep: your body did not have time to recover")
	case r.DurationHours > th.OversleepAbove:
		tips = append(tips, "Sleeping too long can leave you sluggish")
	}
	if r.Start.Hour() >= th.LateBedtimeHour {
		tips = append(tips, "Going to bed late disrupts your circadian rhythm")
	}
	if r.Quality != nil {
		switch {
		case *r.Quality <= th.PoorQualityMax:
			tips = append(tips, "Try a dark room, white noise and a comfortable temperature")
		case float64(*r.Quality) >= th.HighQualityFrom:
			tips = append(tips, "Great result! Keep following your routine")
		}
	}
	if len(tips) == 0 {
		tips = append(tips, "Sleep within the normal range", "Keep tracking for a better analysis")
	}
	return tips
}
