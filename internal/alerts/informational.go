package alerts

import (
	"time"

	"phoa/internal/types"
)

// Notice is a wall-clock informational alert. It is independent of any
// condition.
type Notice struct {
	Key      string
	Title    string
	Message  string
	Severity types.Severity
}

// noticeRule decides whether a notice applies at a local time.
type noticeRule struct {
	notice  Notice
	applies func(local time.Time) bool
}

func hourIn(h, from, to int) bool { return h >= from && h < to }

var noticeRules = []noticeRule{
	{
		notice: Notice{Key: "night", Title: "Nighttime Alert", Severity: types.SeverityInfo,
			Message: "It's nighttime. Keep lights on if you have nyctophobia (fear of darkness)."},
		applies: func(t time.Time) bool { return t.Hour() >= 20 || t.Hour() < 6 },
	},
	{
		notice: Notice{Key: "morning_reminder", Title: "Morning Reminder", Severity: types.SeverityInfo,
			Message: "Good morning! Don't forget to take your morning medication if prescribed."},
		applies: func(t time.Time) bool { return hourIn(t.Hour(), 7, 9) },
	},
	{
		notice: Notice{Key: "evening_reminder", Title: "Evening Reminder", Severity: types.SeverityInfo,
			Message: "Evening reminder: Take your medication and practice relaxation exercises."},
		applies: func(t time.Time) bool { return hourIn(t.Hour(), 18, 22) },
	},
	{
		notice: Notice{Key: "spring_pollen", Title: "Spring Season Alert", Severity: types.SeverityLow,
			Message: "Spring is here. Pollen levels may be high. Keep antihistamines ready."},
		applies: func(t time.Time) bool { return t.Month() >= time.March && t.Month() <= time.May },
	},
	{
		notice: Notice{Key: "fall_light", Title: "Fall Season Alert", Severity: types.SeverityInfo,
			Message: "Fall season. Days are getting shorter. Consider light therapy if you have seasonal affective disorder."},
		applies: func(t time.Time) bool { return t.Month() >= time.September && t.Month() <= time.November },
	},
	{
		notice: Notice{Key: "weekend", Title: "Weekend Alert", Severity: types.SeverityInfo,
			Message: "It's the weekend. Prepare for potential social gatherings if you have social phobia."},
		applies: func(t time.Time) bool {
			d := t.Weekday()
			return d == time.Friday || d == time.Saturday || d == time.Sunday
		},
	},
	{
		notice: Notice{Key: "workday_morning", Title: "Workday Morning", Severity: types.SeverityInfo,
			Message: "Start your day with breathing exercises. You've got this!"},
		applies: func(t time.Time) bool {
			d := t.Weekday()
			return d >= time.Monday && d <= time.Friday && hourIn(t.Hour(), 7, 9)
		},
	},
}

// Informational returns the notices that apply at now, evaluated in loc.
// A nil loc means UTC.
func Informational(now time.Time, loc *time.Location) []Notice {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	var out []Notice
	for _, r := range noticeRules {
		if r.applies(local) {
			out = append(out, r.notice)
		}
	}
	return out
}
