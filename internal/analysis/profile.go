package analysis

type PatternKey string

const (
	NightOwl    PatternKey = "night_owl"
	EarlyBird   PatternKey = "early_bird"
	Irregular   PatternKey = "irregular"
	GoodSleeper PatternKey = "good_sleeper"
)

// Profile describes one sleep archetype.
type Profile struct {
	Key         PatternKey `json:"key"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	KnownIssues []string   `json:"known_issues"`
	Solutions   []string   `json:"solutions"`
}

// profiles is read-only after init; ProfileFor hands out copies.
var profiles = map[PatternKey]Profile{
	NightOwl: {
		Key:         NightOwl,
		Name:        "Night owl",
		Description: "You go to bed late and get up late",
		KnownIssues: []string{"Too little morning sunlight", "Disrupted circadian rhythm"},
		Solutions:   []string{"Shift bedtime 15 minutes earlier each day", "Get 30 minutes of bright light in the morning"},
	},
	EarlyBird: {
		Key:         EarlyBird,
		Name:        "Early bird",
		Description: "You go to bed early and get up early",
		KnownIssues: []string{"Fatigue by the evening", "Waking up too early"},
		Solutions:   []string{"Take a 20-30 minute nap during the day", "Build a relaxing evening routine"},
	},
	Irregular: {
		Key:         Irregular,
		Name:        "Irregular",
		Description: "No clear sleep schedule",
		KnownIssues: []string{"Chronic fatigue", "Trouble concentrating"},
		Solutions:   []string{"Fix your wake-up time", "Set the same alarm every day"},
	},
	GoodSleeper: {
		Key:         GoodSleeper,
		Name:        "Ideal sleeper",
		Description: "Stable, good quality sleep",
		KnownIssues: nil,
		Solutions:   []string{"Keep it up!", "Share your habits with friends"},
	},
}

// ProfileFor returns the profile for key. Unknown keys fall back to Irregular.
func ProfileFor(key PatternKey) Profile {
	p, ok := profiles[key]
	if !ok {
		p = profiles[Irregular]
	}
	p.KnownIssues = append([]string(nil), p.KnownIssues...)
	p.Solutions = append([]string(nil), p.Solutions...)
	return p
}

// PatternKeys lists every archetype in a stable order.
func PatternKeys() []PatternKey {
	return []PatternKey{NightOwl, EarlyBird, Irregular, GoodSleeper}
}
