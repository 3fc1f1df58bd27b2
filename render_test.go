package main

import "testing"

func TestBuildPanelLabel(t *testing.T) {
	next := &NextPrayer{Name: PrayerAsr, Time: ClockTime{Hour: 15, Minute: 45}, TotalMinutes: 945}
	cd := Countdown{TotalSeconds: 6300, Hours: 1, Minutes: 45}

	if got := buildPanelLabel("tr", next, cd); got != "İkindi 1:45:00" {
		t.Errorf("buildPanelLabel(tr) = %q, want %q", got, "İkindi 1:45:00")
	}
	if got := buildPanelLabel("en", next, cd); got != "Asr 1:45:00" {
		t.Errorf("buildPanelLabel(en) = %q, want %q", got, "Asr 1:45:00")
	}
	if got := buildPanelLabel("tr", nil, Countdown{}); got != "--:--" {
		t.Errorf("buildPanelLabel(nil) = %q, want %q", got, "--:--")
	}
}

func TestBuildMenuEntries(t *testing.T) {
	timings := testTimings()
	next := &NextPrayer{Name: PrayerAsr, Time: ClockTime{Hour: 15, Minute: 45}, TotalMinutes: 945}

	entries := buildMenuEntries("tr", timings, next)
	if len(entries) != 6 {
		t.Fatalf("entries = %d, want 6", len(entries))
	}

	// Chronological order is fixed regardless of map iteration.
	if entries[0].Name != PrayerFajr || entries[5].Name != PrayerIsha {
		t.Errorf("entries out of order: first %s, last %s", entries[0].Name, entries[5].Name)
	}

	for _, entry := range entries {
		if entry.Name == PrayerAsr {
			if entry.Label != "➤ İkindi" {
				t.Errorf("next label = %q, want %q", entry.Label, "➤ İkindi")
			}
			if !entry.IsNext {
				t.Error("Asr not marked as next")
			}
		} else if entry.IsNext {
			t.Errorf("%s wrongly marked as next", entry.Name)
		}
	}
}

func TestBuildLocationLine(t *testing.T) {
	location := LocationInfo{City: "Istanbul", Source: LocationSourceDetected}

	if got := buildLocationLine("tr", location, false); got != "📍 Istanbul" {
		t.Errorf("buildLocationLine = %q, want %q", got, "📍 Istanbul")
	}
	if got := buildLocationLine("tr", location, true); got != "📍 Istanbul (Önbellek)" {
		t.Errorf("buildLocationLine cached = %q, want %q", got, "📍 Istanbul (Önbellek)")
	}
	if got := buildLocationLine("en", location, true); got != "📍 Istanbul (Cached)" {
		t.Errorf("buildLocationLine cached en = %q, want %q", got, "📍 Istanbul (Cached)")
	}
}
