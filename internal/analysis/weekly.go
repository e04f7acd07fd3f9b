package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

type WeekVerdict string

const (
	VerdictExcellent WeekVerdict = "excellent"
	VerdictGood      WeekVerdict = "good"
	VerdictNeedsWork WeekVerdict = "needs_work"
	VerdictUnrated   WeekVerdict = "unrated"
)

// DayRow is one calendar day of a weekly report. Stars and Bars are clamped to
// their caps.
type DayRow struct {
	Date       time.Time `json:"date"`
	Hours      float64   `json:"hours"`
	Sessions   int       `json:"sessions"`
	AvgQuality *float64  `json:"avg_quality,omitempty"`
	Stars      int       `json:"stars"`
	Bars       int       `json:"bars"`
}

type WeeklyReport struct {
	From       time.Time   `json:"from"`
	To         time.Time   `json:"to"`
	NoData     bool        `json:"no_data"`
	Count      int         `json:"count"`
	TotalHours float64     `json:"total_hours"`
	AvgQuality *float64    `json:"avg_quality,omitempty"`
	Days       []DayRow    `json:"days,omitempty"`
	Verdict    WeekVerdict `json:"verdict,omitempty"`
}

// AggregateWeek summarises records whose start date lies in [weekStart, weekEnd],
// both ends inclusive and compared by calendar date in weekStart's location.
func AggregateWeek(records []Record, weekStart, weekEnd time.Time, th Thresholds) WeeklyReport {
	loc := weekStart.Location()
	from := dateOf(weekStart, loc)
	to := dateOf(weekEnd, loc)
	report := WeeklyReport{From: from, To: to}

	type dayAcc struct {
		hours      float64
		sessions   int
		qualitySum int
		rated      int
	}
	days := make(map[time.Time]*dayAcc)

	qualitySum, rated := 0, 0
	for _, r := range records {
		d := dateOf(r.Start, loc)
		if d.Before(from) || d.After(to) {
			continue
		}
		report.Count++
		report.TotalHours += r.DurationHours

		acc, ok := days[d]
		if !ok {
			acc = &dayAcc{}
			days[d] = acc
		}
		acc.hours += r.DurationHours
		acc.sessions++
		if r.Quality != nil {
			acc.qualitySum += *r.Quality
			acc.rated++
			qualitySum += *r.Quality
			rated++
		}
	}

	if report.Count == 0 {
		report.NoData = true
		return report
	}

	if rated > 0 {
		q := float64(qualitySum) / float64(rated)
		report.AvgQuality = &q
	}
	report.Verdict = weekVerdict(report.AvgQuality)

	report.Days = make([]DayRow, 0, len(days))
	for d, acc := range days {
		row := DayRow{
			Date:     d,
			Hours:    acc.hours,
			Sessions: acc.sessions,
			Bars:     min(int(acc.hours), th.BarCap),
		}
		if acc.rated > 0 {
			q := float64(acc.qualitySum) / float64(acc.rated)
			row.AvgQuality = &q
			row.Stars = min(int(math.Round(q)), th.StarCap)
		}
		report.Days = append(report.Days, row)
	}
	sort.Slice(report.Days, func(i, j int) bool {
		return report.Days[i].Date.Before(report.Days[j].Date)
	})

	return report
}

func weekVerdict(avg *float64) WeekVerdict {
	switch {
	case avg == nil:
		return VerdictUnrated
	case *avg >= 4:
		return VerdictExcellent
	case *avg >= 3:
		return VerdictGood
	default:
		return VerdictNeedsWork
	}
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

var verdictText = map[WeekVerdict]string{
	VerdictExcellent: "Excellent week! Keep it going!",
	VerdictGood:      "Good week. There is room to grow!",
	VerdictNeedsWork: "Work on your sleep quality",
	VerdictUnrated:   "Rate your sessions to get a verdict",
}

// RenderWeekly formats a report as a plain-text table.
func RenderWeekly(r WeeklyReport) string {
	if r.NoData {
		return "No data for this week\n\nStart tracking your sleep to see reports!\n3-5 days are enough for a first analysis."
	}

	var b strings.Builder
	b.WriteString("Weekly report\n\n")
	b.WriteString("Day         Sleep            Quality\n")
	b.WriteString(strings.Repeat("-", 36) + "\n")
	for _, d := range r.Days {
		fmt.Fprintf(&b, "%-11s %4.1fh %-10s %s\n",
			d.Date.Format("Mon 02.01"), d.Hours, strings.Repeat("█", d.Bars), strings.Repeat("★", d.Stars))
	}

	b.WriteString("\nWeek summary:\n")
	fmt.Fprintf(&b, "• Sessions: %d\n", r.Count)
	fmt.Fprintf(&b, "• Total hours: %.1f\n", r.TotalHours)
	if r.AvgQuality != nil {
		fmt.Fprintf(&b, "• Average rating: %.1f/5\n", *r.AvgQuality)
	}
	b.WriteString("\n" + verdictText[r.Verdict])
	return b.String()
}
