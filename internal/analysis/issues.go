package analysis

type IssueTag string

const (
	LateBedtime  IssueTag = "late_bedtime"
	SleepDeficit IssueTag = "sleep_deficit"
	Oversleep    IssueTag = "oversleep"
	PoorQuality  IssueTag = "poor_quality"
)

var issueLabels = map[IssueTag]string{
	LateBedtime:  "Late bedtime",
	SleepDeficit: "Not enough sleep",
	Oversleep:    "Oversleeping",
	PoorQuality:  "Poor sleep quality",
}

var issueActions = map[IssueTag]string{
	LateBedtime:  "Late bedtime: aim to be in bed before 23:00",
	SleepDeficit: "Not enough sleep: add 30-60 minutes to your night",
	Oversleep:    "Oversleeping: set a firm wake-up alarm",
	PoorQuality:  "Poor sleep quality: make the room dark, quiet and cool",
}

// Label is the short display name of the tag.
func (t IssueTag) Label() string {
	if l, ok := issueLabels[t]; ok {
		return l
	}
	return string(t)
}

// Action is a short actionable phrase for the tag.
func (t IssueTag) Action() string {
	if a, ok := issueActions[t]; ok {
		return a
	}
	return string(t)
}

// DetectIssues returns the distinct tags raised by any record, in first-seen
// order, truncated to th.MaxIssues.
func DetectIssues(records []Record, th Thresholds) []IssueTag {
	seen := make(map[IssueTag]bool, 4)
	issues := make([]IssueTag, 0, 4)
	add := func(tag IssueTag) {
		if !seen[tag] {
			seen[tag] = true
			issues = append(issues, tag)
		}
	}

	for _, r := range records {
		for _, tag := range recordIssues(r, th) {
			add(tag)
		}
	}

	if th.MaxIssues > 0 && len(issues) > th.MaxIssues {
		issues = issues[:th.MaxIssues]
	}
	return issues
}

func recordIssues(r Record, th Thresholds) []IssueTag {
	var tags []IssueTag
	if r.Start.Hour() >= th.LateBedtimeHour {
		tags = append(tags, LateBedtime)
	}
	if r.DurationHours < th.DeficitBelow {
		tags = append(tags, SleepDeficit)
	}
	if r.DurationHours > th.OversleepAbove {
		tags = append(tags, Oversleep)
	}
	if r.Quality != nil && *r.Quality <= th.PoorQualityMax {
		tags = append(tags, PoorQuality)
	}
	return tags
}
