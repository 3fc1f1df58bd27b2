package main

import (
	"fmt"
	"log/slog"
)

// RenderTarget is the surface a panel frontend paints: a compact label
// next to the clock and a menu listing the day's prayers. The daemon also
// exposes the same data over HTTP; this interface exists for hosts that
// embed the engine directly.
type RenderTarget interface {
	RenderPanel(label string)
	RenderMenu(location string, entries []MenuEntry)
}

// logRenderTarget writes render updates to the debug log. It is the
// default target when the daemon runs headless.
type logRenderTarget struct {
	logger *slog.Logger
}

func (r *logRenderTarget) RenderPanel(label string) {
	r.logger.Debug("panel", "label", label)
}

func (r *logRenderTarget) RenderMenu(location string, entries []MenuEntry) {
	r.logger.Debug("menu", "location", location, "entries", len(entries))
}

// buildPanelLabel renders "<localized prayer> H:MM:SS".
func buildPanelLabel(lang string, next *NextPrayer, cd Countdown) string {
	if next == nil {
		return "--:--"
	}
	return fmt.Sprintf("%s %s", localizedPrayerName(lang, next.Name), formatCountdown(cd))
}

// buildMenuEntries lists all six prayers in chronological order, marking
// the next one the way the panel menu highlights it.
func buildMenuEntries(lang string, timings DailyTimings, next *NextPrayer) []MenuEntry {
	entries := make([]MenuEntry, 0, len(prayerOrder))
	for _, name := range prayerOrder {
		t, ok := timings[name]
		if !ok {
			continue
		}
		isNext := next != nil && next.Name == name
		label := localizedPrayerName(lang, name)
		if isNext {
			label = "➤ " + label
		}
		entries = append(entries, MenuEntry{
			Name:   name,
			Label:  label,
			Time:   t.String(),
			IsNext: isNext,
		})
	}
	return entries
}

// buildLocationLine renders "📍 city", with the cached marker appended
// when the snapshot was served from the offline cache.
func buildLocationLine(lang string, location LocationInfo, cached bool) string {
	if cached {
		return fmt.Sprintf("📍 %s (%s)", location.City, uiLabel(lang, "cached"))
	}
	return fmt.Sprintf("📍 %s", location.City)
}
