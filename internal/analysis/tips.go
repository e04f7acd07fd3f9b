package analysis

import "errors"

var ErrUnknownTipCategory = errors.New("analysis: unknown tip category")

type TipCategory string

const (
	TipsFallingAsleep TipCategory = "falling_asleep"
	TipsWakingUp      TipCategory = "waking_up"
	TipsQuality       TipCategory = "quality"
	TipsSchedule      TipCategory = "schedule"
)

var tipSheets = map[TipCategory][]string{
	TipsFallingAsleep: {
		"Evening routine: a warm bath 1-2 hours before bed",
		"No screens: swap the phone for a book",
		"Temperature: 18-20°C is ideal for sleep",
		"Herbal tea: chamomile, mint, lemon balm",
		"4-7-8 breathing: inhale 4s, hold 7s, exhale 8s",
		"White noise: rain, ocean, a fan",
		"Complete darkness: blackout curtains or a sleep mask",
	},
	TipsWakingUp: {
		"Light: bright light right after waking",
		"Water: a glass of room-temperature water",
		"Exercise: 5-10 minutes of light stretching",
		"Music: something upbeat",
		"Gradual start: an alarm 10 minutes before you really get up",
		"Scent: citrus or mint",
		"Cool down: wash your face with cool water",
	},
	TipsQuality: {
		"Position: sleep on your side or back",
		"Cleanliness: change your bedding regularly",
		"Air: ventilate the room before bed",
		"Silence: earplugs if needed",
		"Dinner: light, 3 hours before bed",
		"Caffeine: none after 15:00",
		"Gadgets: do-not-disturb mode for the night",
	},
	TipsSchedule: {
		"Fixed time: within 30 minutes every day",
		"Sunlight: morning light tunes your body clock",
		"Sport: finish workouts 3 hours before bed",
		"Plan: lay out your day to reduce stress",
		"Meditation: 10 minutes before bed",
		"Journal: write your thoughts down before sleep",
		"Weekends: shift your sleep by no more than an hour",
	},
}

// TipCategories lists the tip sheets in display order.
func TipCategories() []TipCategory {
	return []TipCategory{TipsFallingAsleep, TipsWakingUp, TipsQuality, TipsSchedule}
}

func TipsFor(c TipCategory) ([]string, error) {
	tips, ok := tipSheets[c]
	if !ok {
		return nil, ErrUnknownTipCategory
	}
	return append([]string(nil), tips...), nil
}

var forecasts = map[PatternKey][]string{
	GoodSleeper: {
		"Keep this routine and within a month you will notice:",
		"More energy through the day",
		"Better concentration",
		"A better mood",
	},
	NightOwl: {
		"Fix your schedule and within two weeks:",
		"Easier mornings",
		"Better sleep quality",
		"More productive morning hours",
	},
	EarlyBird: {
		"Fine-tune your schedule and you will get:",
		"Steady energy all day",
		"Better recovery",
		"A stronger immune system",
	},
	Irregular: {
		"Stabilise your schedule and within three weeks:",
		"Chronic fatigue goes away",
		"Memory improves",
		"General wellbeing improves",
	},
}

// Forecast returns the outlook for a pattern; the first line is the heading.
func Forecast(key PatternKey) []string {
	f, ok := forecasts[key]
	if !ok {
		f = forecasts[Irregular]
	}
	return append([]string(nil), f...)
}
