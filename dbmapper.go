package main

import (
	"encoding/json"
	"time"

	"github.com/emre-ozel/prayertimes/internal/database"
	"github.com/google/uuid"
)

// This file contains the converters between domain types and the rows of
// the timings archive.

func snapshotToUpsertTimingsDayParams(snapshot CachedSnapshot, fetchedAt time.Time) (database.UpsertTimingsDayParams, error) {
	timingsJSON, err := json.Marshal(snapshot.Timings)
	if err != nil {
		return database.UpsertTimingsDayParams{}, err
	}
	return database.UpsertTimingsDayParams{
		ID:        uuid.New(),
		DateKey:   snapshot.DateKey,
		City:      snapshot.Location.City,
		Latitude:  snapshot.Location.Latitude,
		Longitude: snapshot.Location.Longitude,
		Source:    string(snapshot.Location.Source),
		Timings:   timingsJSON,
		FetchedAt: fetchedAt,
	}, nil
}

func timingsDayToHistoryEntry(day database.TimingsDay) (HistoryEntryJSON, error) {
	var timings DailyTimings
	if err := json.Unmarshal(day.Timings, &timings); err != nil {
		return HistoryEntryJSON{}, err
	}
	return HistoryEntryJSON{
		DateKey:   day.DateKey,
		City:      day.City,
		Timings:   timings,
		FetchedAt: day.FetchedAt.UTC().Format("2006-01-02 15:04"),
	}, nil
}
