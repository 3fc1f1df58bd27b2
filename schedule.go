package main

import (
	"fmt"
	"time"
)

// This file contains the prayer schedule arithmetic: deriving the next
// prayer from a day's timings, the whole-second countdown to it, and the
// panel formatting of that countdown. Everything here is a pure function
// of its inputs so the engine can be tested against fixed instants.

const minutesPerDay = 24 * 60

// nextPrayerAt walks the fixed chronological order and returns the first
// prayer whose time of day is strictly after now. When every prayer has
// passed it returns tomorrow's Fajr. A nil result means the timings carry
// no usable entry at all.
func nextPrayerAt(timings DailyTimings, now time.Time) *NextPrayer {
	nowMinutes := now.Hour()*60 + now.Minute()

	for _, name := range prayerOrder {
		t, ok := timings[name]
		if !ok {
			continue
		}
		if t.MinuteOfDay() > nowMinutes {
			return &NextPrayer{
				Name:         name,
				Time:         t,
				TotalMinutes: t.MinuteOfDay(),
			}
		}
	}

	fajr, ok := timings[PrayerFajr]
	if !ok {
		return nil
	}
	return &NextPrayer{
		Name:         PrayerFajr,
		Time:         fajr,
		TotalMinutes: fajr.MinuteOfDay(),
		Tomorrow:     true,
	}
}

// countdownMinutes returns the whole minutes between now and the next
// prayer, counting across midnight when the next prayer is tomorrow's.
func countdownMinutes(next *NextPrayer, now time.Time) int {
	nowMinutes := now.Hour()*60 + now.Minute()
	if next.Tomorrow {
		return (minutesPerDay - nowMinutes) + next.TotalMinutes
	}
	return next.TotalMinutes - nowMinutes
}

// countdownTo converts the minute difference into a second-precision
// countdown by subtracting the seconds already elapsed in the current
// minute. The result may be negative when the prayer boundary was crossed
// between deriving next and calling this; callers go through resolveNext
// which corrects for that.
func countdownTo(next *NextPrayer, now time.Time) Countdown {
	totalSeconds := countdownMinutes(next, now)*60 - now.Second()
	return Countdown{
		TotalSeconds: totalSeconds,
		Hours:        totalSeconds / 3600,
		Minutes:      (totalSeconds % 3600) / 60,
		Seconds:      totalSeconds % 60,
	}
}

// resolveNext computes the countdown for one tick. cached is the next
// prayer derived on an earlier tick and may be stale: when the prayer
// boundary was crossed since, its countdown comes out negative, in which
// case the next prayer is recomputed once against the current instant and
// the countdown redone. A still-negative result is clamped to zero so the
// panel never shows a negative countdown.
func resolveNext(timings DailyTimings, cached *NextPrayer, now time.Time) (*NextPrayer, Countdown) {
	next := cached
	if next == nil {
		next = nextPrayerAt(timings, now)
	}
	if next == nil {
		return nil, Countdown{}
	}

	cd := countdownTo(next, now)
	if cd.TotalSeconds < 0 {
		next = nextPrayerAt(timings, now)
		if next == nil {
			return nil, Countdown{}
		}
		cd = countdownTo(next, now)
	}
	if cd.TotalSeconds < 0 {
		cd = Countdown{}
	}
	return next, cd
}

// formatCountdown renders H:MM:SS, dropping the hours field (and the
// leading zero on minutes) when less than an hour remains.
func formatCountdown(cd Countdown) string {
	if cd.Hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", cd.Hours, cd.Minutes, cd.Seconds)
	}
	return fmt.Sprintf("%d:%02d", cd.Minutes, cd.Seconds)
}

// dateKey formats a calendar date the way the timings API addresses days:
// D-M-YYYY without zero padding.
func dateKey(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Day(), int(t.Month()), t.Year())
}
