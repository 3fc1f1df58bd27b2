package main

import (
	"context"
	"encoding/json"
	"time"
)

// This file contains the typed helpers on top of the raw Cache. A cache
// entry that cannot be read or parsed is treated as absent, never as a
// fatal error: the worst case is an extra fetch.

const (
	cacheKeySnapshot         = "prayertimes:snapshot"
	cacheKeyLastFetchDate    = "prayertimes:last-fetch-date"
	cacheKeyDetectedLocation = "prayertimes:detected-location"
)

// The snapshot stays readable for two days so that a day with no network
// still has yesterday's timings to fall back on. The detected location
// never expires; stale coordinates beat no coordinates.
const snapshotCacheTTL = 48 * time.Hour

func (cfg *apiConfig) saveSnapshot(ctx context.Context, snapshot CachedSnapshot) {
	if err := cfg.cache.Set(ctx, cacheKeySnapshot, snapshot, snapshotCacheTTL); err != nil {
		cfg.logger.Warn("could not persist snapshot", "error", err)
	}
	if err := cfg.cache.Set(ctx, cacheKeyLastFetchDate, snapshot.DateKey, 0); err != nil {
		cfg.logger.Warn("could not persist last fetch date", "error", err)
	}
}

func (cfg *apiConfig) loadSnapshot(ctx context.Context) (*CachedSnapshot, bool) {
	raw, ok, err := cfg.cache.Get(ctx, cacheKeySnapshot)
	if err != nil {
		cfg.logger.Warn("error reading snapshot from cache", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var snapshot CachedSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		cfg.logger.Warn("invalid cached snapshot, treating as absent", "error", err)
		return nil, false
	}
	if len(snapshot.Timings) == 0 {
		cfg.logger.Warn("cached snapshot has no timings, treating as absent")
		return nil, false
	}
	return &snapshot, true
}

func (cfg *apiConfig) lastFetchDate(ctx context.Context) string {
	raw, ok, err := cfg.cache.Get(ctx, cacheKeyLastFetchDate)
	if err != nil || !ok {
		if err != nil {
			cfg.logger.Warn("error reading last fetch date from cache", "error", err)
		}
		return ""
	}

	var date string
	if err := json.Unmarshal([]byte(raw), &date); err != nil {
		cfg.logger.Warn("invalid cached fetch date, treating as absent", "error", err)
		return ""
	}
	return date
}

func (cfg *apiConfig) saveDetectedLocation(ctx context.Context, location LocationInfo) {
	if err := cfg.cache.Set(ctx, cacheKeyDetectedLocation, location, 0); err != nil {
		cfg.logger.Warn("could not persist detected location", "error", err)
	}
}

func (cfg *apiConfig) loadDetectedLocation(ctx context.Context) (LocationInfo, bool) {
	raw, ok, err := cfg.cache.Get(ctx, cacheKeyDetectedLocation)
	if err != nil {
		cfg.logger.Warn("error reading detected location from cache", "error", err)
		return LocationInfo{}, false
	}
	if !ok {
		return LocationInfo{}, false
	}

	var location LocationInfo
	if err := json.Unmarshal([]byte(raw), &location); err != nil {
		cfg.logger.Warn("invalid cached detected location, treating as absent", "error", err)
		return LocationInfo{}, false
	}
	if location.Latitude == 0 && location.Longitude == 0 {
		return LocationInfo{}, false
	}
	return location, true
}
