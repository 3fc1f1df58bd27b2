package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type LocationSource string

const (
	LocationSourceManual         LocationSource = "manual"
	LocationSourceDetected       LocationSource = "detected"
	LocationSourceCachedDetected LocationSource = "cached_detected"
	LocationSourceDefault        LocationSource = "default"
)

type LocationInfo struct {
	Coordinates
	City   string         `json:"city"`
	Source LocationSource `json:"source"`
}

type PrayerName string

const (
	PrayerFajr    PrayerName = "Fajr"
	PrayerSunrise PrayerName = "Sunrise"
	PrayerDhuhr   PrayerName = "Dhuhr"
	PrayerAsr     PrayerName = "Asr"
	PrayerMaghrib PrayerName = "Maghrib"
	PrayerIsha    PrayerName = "Isha"
)

// prayerOrder is the fixed daily chronology. All iteration over prayers
// must use this slice rather than ranging over a map.
var prayerOrder = []PrayerName{
	PrayerFajr,
	PrayerSunrise,
	PrayerDhuhr,
	PrayerAsr,
	PrayerMaghrib,
	PrayerIsha,
}

// ClockTime is a wall-clock time of day. It marshals as "HH:MM" so that
// cached snapshots keep the same shape as the upstream timings payload.
type ClockTime struct {
	Hour   int
	Minute int
}

func parseClockTime(s string) (ClockTime, error) {
	// Some timings endpoints append a timezone suffix, e.g. "05:00 (EET)".
	s, _, _ = strings.Cut(strings.TrimSpace(s), " ")
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("malformed clock time %q", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return ClockTime{}, fmt.Errorf("malformed hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return ClockTime{}, fmt.Errorf("malformed minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

func (t ClockTime) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type DailyTimings map[PrayerName]ClockTime

type CachedSnapshot struct {
	Timings  DailyTimings `json:"timings"`
	Location LocationInfo `json:"location"`
	DateKey  string       `json:"date"`
}

type NextPrayer struct {
	Name         PrayerName
	Time         ClockTime
	TotalMinutes int
	Tomorrow     bool
}

type Countdown struct {
	TotalSeconds int
	Hours        int
	Minutes      int
	Seconds      int
}

type MenuEntry struct {
	Name   PrayerName `json:"name"`
	Label  string     `json:"label"`
	Time   string     `json:"time"`
	IsNext bool       `json:"is_next"`
}

type TimingsResponse struct {
	Location LocationInfo `json:"location"`
	DateKey  string       `json:"date"`
	Cached   bool         `json:"cached"`
	Entries  []MenuEntry  `json:"entries"`
}

type NextPrayerResponse struct {
	Name             PrayerName `json:"name"`
	LocalizedName    string     `json:"localized_name"`
	Time             string     `json:"time"`
	Tomorrow         bool       `json:"tomorrow"`
	CountdownSeconds int        `json:"countdown_seconds"`
	Countdown        string     `json:"countdown"`
	PanelLabel       string     `json:"panel_label"`
}

type HistoryEntryJSON struct {
	DateKey   string       `json:"date"`
	City      string       `json:"city"`
	Timings   DailyTimings `json:"timings"`
	FetchedAt string       `json:"fetched_at"`
}

type HistoryResponse struct {
	Entries []HistoryEntryJSON `json:"entries"`
}

type ConfigResponse struct {
	DevMode           bool   `json:"dev_mode"`
	TickInterval      string `json:"tick_interval"`
	CalculationMethod int    `json:"calculation_method"`
	MethodName        string `json:"method_name"`
	Language          string `json:"language"`
}
