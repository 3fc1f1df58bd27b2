package main

import (
	"net/http"
	"strconv"
)

// This file contains the HTTP handlers of the panel API. The daemon is
// the backend for a desktop panel widget: the widget polls these
// endpoints instead of embedding the engine directly.

// handlerTimings serves the active day's timings as menu-ready entries,
// with the next prayer marked and the location line attached.
func (e *Engine) handlerTimings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		e.cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	snapshot, cached, next, _ := e.State(e.now())
	if snapshot == nil {
		e.cfg.respondWithError(w, http.StatusServiceUnavailable, "No data", nil)
		return
	}

	lang := matchLanguage(e.cfg.settings.String(settingLanguage))

	response := TimingsResponse{
		Location: snapshot.Location,
		DateKey:  snapshot.DateKey,
		Cached:   cached,
		Entries:  buildMenuEntries(lang, snapshot.Timings, next),
	}

	e.cfg.respondWithJSON(w, http.StatusOK, response)
}

// handlerNextPrayer serves the panel label state: the next prayer and
// the live countdown to it.
func (e *Engine) handlerNextPrayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		e.cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	snapshot, _, next, cd := e.State(e.now())
	if snapshot == nil || next == nil {
		e.cfg.respondWithError(w, http.StatusServiceUnavailable, "No data", nil)
		return
	}

	lang := matchLanguage(e.cfg.settings.String(settingLanguage))

	response := NextPrayerResponse{
		Name:             next.Name,
		LocalizedName:    localizedPrayerName(lang, next.Name),
		Time:             next.Time.String(),
		Tomorrow:         next.Tomorrow,
		CountdownSeconds: cd.TotalSeconds,
		Countdown:        formatCountdown(cd),
		PanelLabel:       buildPanelLabel(lang, next, cd),
	}

	e.cfg.respondWithJSON(w, http.StatusOK, response)
}

// handlerRefresh manually triggers a fetch cycle, the HTTP counterpart
// of the panel menu's refresh item.
func (e *Engine) handlerRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		e.cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	e.cfg.logger.Info("manual refresh triggered")

	e.TriggerFetch("manual")

	e.cfg.respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "refresh triggered"})
}

// handlerHistory serves the most recently archived days from Postgres.
func (cfg *apiConfig) handlerHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	limit := 30
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 365 {
			cfg.respondWithError(w, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = parsed
	}

	days, err := cfg.dbQueries.ListRecentTimingsDays(r.Context(), int32(limit))
	if err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Error reading timings history", err)
		return
	}

	entries := make([]HistoryEntryJSON, 0, len(days))
	for _, day := range days {
		entry, err := timingsDayToHistoryEntry(day)
		if err != nil {
			cfg.logger.Warn("skipping unreadable archive row", "date", day.DateKey, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	cfg.respondWithJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}

// handlerConfig provides the frontend with the daemon's effective
// configuration.
func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	method := cfg.settings.Int(settingCalculationMethod)

	response := ConfigResponse{
		DevMode:           cfg.devMode,
		TickInterval:      cfg.tickInterval.String(),
		CalculationMethod: method,
		MethodName:        calculationMethods[method],
		Language:          matchLanguage(cfg.settings.String(settingLanguage)),
	}

	cfg.respondWithJSON(w, http.StatusOK, response)
}

// handlerResetDB is a development-only endpoint that wipes the timings
// archive and the Redis cache.
func (cfg *apiConfig) handlerResetDB(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.logger.Debug("database reset request received")

	ctx := r.Context()

	if err := cfg.dbQueries.DeleteAllTimingsDays(ctx); err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	if err := cfg.cache.Flush(ctx); err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Failed to flush cache", err)
		return
	}

	cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "database and cache reset"})
}
