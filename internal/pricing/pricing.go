// Package pricing computes deterministic, timezone-aware booking prices.
//
// All money is integer cents. The business locale is a fixed UTC offset, not a
// tz database zone: daylight saving and variable-offset locales are intentionally
// not modeled.
package pricing

import "time"

// Locale is the fixed business offset (+05:30).
var Locale = time.FixedZone("UTC+05:30", 5*3600+30*60)

const (
	LabelPeak    = "Peak hours"
	LabelOffpeak = "Off-peak hours"
)

// Weekday peak windows, local wall clock hours. Minutes inside them bill at 1.5x.
var peakWindows = [][2]int{{10, 13}, {16, 19}}

type Line struct {
	Label       string `json:"label"`
	Minutes     int64  `json:"minutes"`
	AmountCents int64  `json:"amount_cents"`
}

type Quote struct {
	TotalCents     int64  `json:"total_cents"`
	TotalMinutes   int64  `json:"total_minutes"`
	PeakMinutes    int64  `json:"peak_minutes"`
	OffpeakMinutes int64  `json:"offpeak_minutes"`
	Breakdown      []Line `json:"breakdown"`
}

// Compute prices the half-open interval [start,end) at rateCents per hour.
// A start at or after end yields a zero quote with no breakdown.
//
// Peak minutes are accumulated per local calendar day: for every weekday touched
// by the interval, each peak window of that specific day is converted back to
// absolute instants and the clamped overlap with [start,end) is summed. Window
// edges follow the half-open convention, so a booking ending exactly at 13:00
// local gets no minute from the 16:00 window and a booking starting at 13:00
// gets none from the 10:00 one.
func Compute(rateCents int64, start, end time.Time) Quote {
	if !start.Before(end) {
		return Quote{}
	}

	totalMin := int64(end.Sub(start) / time.Minute)
	peakMin := int64(0)

	localEnd := end.In(Locale)
	for day := localMidnight(start); day.Before(localEnd); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for _, w := range peakWindows {
			ws := time.Date(day.Year(), day.Month(), day.Day(), w[0], 0, 0, 0, Locale)
			we := time.Date(day.Year(), day.Month(), day.Day(), w[1], 0, 0, 0, Locale)
			peakMin += overlapMinutes(start, end, ws, we)
		}
	}

	offMin := totalMin - peakMin

	// peak bills at 3/2 the hourly rate; round half-up to whole cents.
	peakCents := divRound(peakMin*rateCents*3, 120)
	offCents := divRound(offMin*rateCents, 60)

	q := Quote{
		TotalCents:     peakCents + offCents,
		TotalMinutes:   totalMin,
		PeakMinutes:    peakMin,
		OffpeakMinutes: offMin,
	}
	if peakMin > 0 {
		q.Breakdown = append(q.Breakdown, Line{Label: LabelPeak, Minutes: peakMin, AmountCents: peakCents})
	}
	if offMin > 0 {
		q.Breakdown = append(q.Breakdown, Line{Label: LabelOffpeak, Minutes: offMin, AmountCents: offCents})
	}
	return q
}

// localMidnight returns 00:00 of t's calendar day in the business locale.
func localMidnight(t time.Time) time.Time {
	lt := t.In(Locale)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, Locale)
}

func overlapMinutes(start, end, ws, we time.Time) int64 {
	lo := start
	if ws.After(lo) {
		lo = ws
	}
	hi := end
	if we.Before(hi) {
		hi = we
	}
	if !lo.Before(hi) {
		return 0
	}
	return int64(hi.Sub(lo) / time.Minute)
}

func divRound(n, d int64) int64 {
	return (n + d/2) / d
}
