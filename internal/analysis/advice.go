package analysis

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// TipPicker chooses one of n generic tips.
type TipPicker interface {
	Pick(n int) int
}

// RandPicker is a seedable TipPicker, safe for concurrent use.
type RandPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandPicker(seed uint64) *RandPicker {
	return &RandPicker{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandPicker) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.IntN(n)
}

// FixedPicker always picks the same index (modulo n).
type FixedPicker int

func (f FixedPicker) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(f) % n
	if i < 0 {
		i += n
	}
	return i
}

var genericTips = []string{
	"Drink enough water during the day",
	"Regular exercise improves sleep",
	"Go to bed and get up at the same time",
	"Caffeine after 15:00 can keep you awake",
	"Have a light dinner 3 hours before bed",
	"18-20°C is the best bedroom temperature",
}

// GenericTips returns a copy of the tip pool.
func GenericTips() []string {
	return append([]string(nil), genericTips...)
}

const insufficientDataAdvice = `Sleep analysis

Not enough data for a detailed analysis yet.
To get personal recommendations:

1. Track your sleep for at least 3-5 days
2. Rate the quality after every session
3. Log consistently

General advice for now:
• Aim for 7-9 hours of sleep
• Go to bed before 23:00
• Build an evening routine
• Avoid screens before bed`

// InsufficientDataAdvice is the fixed text shown below the minimum sample size.
func InsufficientDataAdvice() string { return insufficientDataAdvice }

// AdviceInput carries everything ComposeAdvice looks at.
type AdviceInput struct {
	Profile     Profile
	Issues      []IssueTag
	AvgDuration float64
	AvgQuality  *float64
	SampleCount int
}

// ComposeAdvice assembles the advice block. The only non-deterministic part is
// the generic tip, which comes from picker.
func ComposeAdvice(in AdviceInput, th Thresholds, picker TipPicker) string {
	if in.SampleCount < th.MinRecordsForPattern {
		return insufficientDataAdvice
	}

	var b strings.Builder
	b.WriteString("Your type: " + in.Profile.Name + "\n")
	b.WriteString(in.Profile.Description + "\n")

	if len(in.Profile.KnownIssues) > 0 {
		b.WriteString("\nTypical issues:\n")
		writeBullets(&b, in.Profile.KnownIssues)
	}

	if len(in.Issues) > 0 {
		b.WriteString("\nDetected issues:\n")
		actions := make([]string, 0, len(in.Issues))
		for _, tag := range in.Issues {
			actions = append(actions, tag.Action())
		}
		writeBullets(&b, actions)
	}

	recs := []string{durationAdvice(in.AvgDuration, th)}
	recs = append(recs, qualityAdvice(in.AvgQuality, th)...)
	solutions := in.Profile.Solutions
	if len(solutions) > 2 {
		solutions = solutions[:2]
	}
	recs = append(recs, solutions...)
	if picker != nil {
		recs = append(recs, genericTips[picker.Pick(len(genericTips))])
	}

	b.WriteString("\nRecommendations:\n")
	writeBullets(&b, recs)
	return strings.TrimRight(b.String(), "\n")
}

func durationAdvice(avg float64, th Thresholds) string {
	switch {
	case avg < th.IncreaseDurationBelow:
		return "Increase your sleep to 7-9 hours, your body needs it"
	case avg > th.ReduceDurationAbove:
		return "7-9 hours is optimal, sleeping too long is harmful too"
	default:
		return "Great sleep duration! Keep it up"
	}
}

func qualityAdvice(avg *float64, th Thresholds) []string {
	if avg == nil {
		return nil
	}
	switch {
	case *avg < th.LowQualityBelow:
		return []string{
			"Improve your sleep environment: darkness, silence, cool air",
			"No screens in the hour before bed",
			"Try meditation or reading before sleep",
		}
	case *avg >= th.HighQualityFrom:
		return []string{"Great sleep quality! You are on the right track"}
	default:
		return nil
	}
}

func writeBullets(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString("• " + l + "\n")
	}
}
