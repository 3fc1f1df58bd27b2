package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// This file contains the refresh engine: the one-second loop that keeps
// the countdown current, fires notifications through the gate, and
// re-fetches timings on startup, on settings changes and when the
// calendar date advances. Fetches run in their own goroutine; a
// monotonically increasing sequence token makes the latest started fetch
// the only one allowed to update shared state, so a slow stale response
// can never overwrite a newer one.

const fetchTimeout = 30 * time.Second

type Engine struct {
	cfg      *apiConfig
	gate     *NotificationGate
	notifier NotificationSink
	render   RenderTarget

	tickChan <-chan time.Time
	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once

	now         func() time.Time
	unsubscribe func()

	fetchSeq atomic.Uint64
	fetching atomic.Bool

	mu            sync.Mutex
	snapshot      *CachedSnapshot
	next          *NextPrayer
	cached        bool
	noData        bool
	lastFetchDate string

	// replaceable in tests
	tickJob  func()
	fetchJob func(reason string)
}

func NewEngine(cfg *apiConfig, notifier NotificationSink, render RenderTarget) *Engine {
	ticker := time.NewTicker(cfg.tickInterval)
	e := &Engine{
		cfg:      cfg,
		gate:     newNotificationGate(),
		notifier: notifier,
		render:   render,
		tickChan: ticker.C,
		ticker:   ticker,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	e.tickJob = e.onTick
	e.fetchJob = e.runFetchCycle
	return e
}

// Start seeds state from the cache, subscribes to settings changes,
// triggers the startup fetch and launches the tick loop.
func (e *Engine) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	e.mu.Lock()
	e.lastFetchDate = e.cfg.lastFetchDate(ctx)
	e.mu.Unlock()
	cancel()

	e.unsubscribe = e.cfg.settings.Subscribe(e.onSettingsChanged)

	go e.fetchJob("startup")

	go func() {
		for {
			select {
			case <-e.tickChan:
				e.tickJob()
			case <-e.stop:
				e.ticker.Stop()
				return
			}
		}
	}()
}

// Stop tears the engine down deterministically: the settings listener is
// removed and the ticker stopped, after which no further callbacks fire.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		if e.unsubscribe != nil {
			e.unsubscribe()
		}
		close(e.stop)
	})
}

// onSettingsChanged consults the reaction table: location and method
// changes invalidate the timings, a language change only the labels.
func (e *Engine) onSettingsChanged(key string) {
	switch settingsReactions[key] {
	case reactionRefetch:
		e.cfg.logger.Debug("settings change triggers refetch", "key", key)
		go e.fetchJob("settings-change")
	case reactionRelabel:
		e.cfg.logger.Debug("settings change triggers relabel", "key", key)
		e.renderState(e.now())
	}
}

// TriggerFetch requests an immediate fetch cycle, bypassing the
// in-flight guard. Used by the manual refresh endpoint.
func (e *Engine) TriggerFetch(reason string) {
	go e.fetchJob(reason)
}

// onTick drives one cycle of the engine: refresh the countdown, evaluate
// the notification gate, and kick off a fetch when the calendar date has
// advanced past the last successful fetch.
func (e *Engine) onTick() {
	now := e.now()

	e.renderState(now)

	e.mu.Lock()
	next := e.next
	lastDate := e.lastFetchDate
	e.mu.Unlock()

	e.evaluateNotifications(next, now)

	if dateKey(now) != lastDate && !e.fetching.Load() {
		go e.fetchJob("date-rollover")
	}
}

// evaluateNotifications runs the gate for the current countdown and
// fires whatever it releases. Sink failures are logged and swallowed;
// nothing here may interrupt the tick loop.
func (e *Engine) evaluateNotifications(next *NextPrayer, now time.Time) {
	if next == nil || !e.cfg.settings.Bool(settingNotificationsEnabled) {
		return
	}

	m := countdownMinutes(next, now)
	reminderEnabled := e.cfg.settings.Bool(settingReminderEnabled)
	threshold := reminderMinutes(e.cfg.settings)

	e.mu.Lock()
	onTime, reminder := e.gate.Evaluate(next.Name, m, reminderEnabled, threshold)
	e.mu.Unlock()

	lang := matchLanguage(e.cfg.settings.String(settingLanguage))
	name := localizedPrayerName(lang, next.Name)

	if onTime {
		e.notify("ontime",
			uiLabel(lang, "prayerTime"),
			fmt.Sprintf("%s %s", name, uiLabel(lang, "timeEntered")),
			"appointment-soon-symbolic",
		)
	}
	if reminder {
		e.notify("reminder",
			uiLabel(lang, "prayerReminder"),
			fmt.Sprintf("%s %s %d %s", name, uiLabel(lang, "toTime"), m, uiLabel(lang, "minutesRemaining")),
			"alarm-symbolic",
		)
	}
}

func (e *Engine) notify(kind, title, body, icon string) {
	notificationsTotal.WithLabelValues(kind).Inc()
	if err := e.notifier.Notify(title, body, icon); err != nil {
		e.cfg.logger.Warn("notification sink failed", "kind", kind, "error", err)
	}
}

// renderState paints the current state onto the render target. State is
// read under the lock; the target is called outside it.
func (e *Engine) renderState(now time.Time) {
	lang := matchLanguage(e.cfg.settings.String(settingLanguage))

	e.mu.Lock()
	if e.snapshot == nil {
		noData := e.noData
		e.mu.Unlock()
		if noData {
			e.render.RenderPanel(uiLabel(lang, "noData"))
		} else {
			e.render.RenderPanel(uiLabel(lang, "loading"))
		}
		return
	}
	next, cd := resolveNext(e.snapshot.Timings, e.next, now)
	e.next = next
	label := buildPanelLabel(lang, next, cd)
	entries := buildMenuEntries(lang, e.snapshot.Timings, next)
	locationLine := buildLocationLine(lang, e.snapshot.Location, e.cached)
	e.mu.Unlock()

	e.render.RenderPanel(label)
	e.render.RenderMenu(locationLine, entries)
}

// runFetchCycle performs one resolve-and-fetch pass. On success the new
// snapshot replaces shared state (last write wins via the sequence
// token), is persisted to the cache and archived; the per-day
// notification sets reset only when the fetched date differs from the
// previous successful fetch. On failure the cycle degrades to the cached
// snapshot, and to the no-data state when none exists.
func (e *Engine) runFetchCycle(reason string) {
	seq := e.fetchSeq.Add(1)
	e.fetching.Store(true)
	defer e.fetching.Store(false)

	cycleID := uuid.New()
	logger := e.cfg.logger.With("cycle_id", cycleID.String(), "reason", reason)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	location := e.cfg.resolveLocation(ctx)
	method := e.cfg.settings.Int(settingCalculationMethod)
	key := dateKey(e.now())

	logger.Debug("fetching timings",
		"city", location.City,
		"source", string(location.Source),
		"method", method,
		"date", key,
	)

	timings, err := e.cfg.timings.FetchTimings(ctx, location.Coordinates, method, key)
	if err != nil {
		logger.Warn("timings fetch failed, degrading to cache", "error", err)
		e.applyCachedFallback(ctx, seq)
		return
	}

	snapshot := CachedSnapshot{
		Timings:  timings,
		Location: location,
		DateKey:  key,
	}

	if !e.applyFetched(seq, snapshot) {
		logger.Debug("discarding stale fetch result")
		return
	}

	e.cfg.saveSnapshot(ctx, snapshot)
	e.archiveSnapshot(ctx, snapshot, logger)
	fetchesTotal.WithLabelValues("fetched").Inc()
	logger.Info("timings updated", "city", location.City, "date", key)

	e.renderState(e.now())
}

// applyFetched installs a successful fetch unless a newer cycle has
// started since. Returns false when the result was stale.
func (e *Engine) applyFetched(seq uint64, snapshot CachedSnapshot) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.fetchSeq.Load() {
		return false
	}
	if snapshot.DateKey != e.lastFetchDate {
		e.gate.ResetDay()
	}
	e.snapshot = &snapshot
	e.next = nil
	e.cached = false
	e.noData = false
	e.lastFetchDate = snapshot.DateKey
	return true
}

// applyCachedFallback serves the last persisted snapshot after a failed
// fetch. The last fetch date is left untouched so the next tick retries.
func (e *Engine) applyCachedFallback(ctx context.Context, seq uint64) {
	snapshot, ok := e.cfg.loadSnapshot(ctx)

	e.mu.Lock()
	if seq != e.fetchSeq.Load() {
		e.mu.Unlock()
		return
	}
	if ok {
		e.snapshot = snapshot
		e.next = nil
		e.cached = true
		e.noData = false
	} else if e.snapshot == nil {
		e.noData = true
	}
	e.mu.Unlock()

	if ok {
		fetchesTotal.WithLabelValues("cached").Inc()
	} else {
		fetchesTotal.WithLabelValues("nodata").Inc()
	}

	e.renderState(e.now())
}

// archiveSnapshot upserts the day into the Postgres archive. Archive
// failures never disturb the fetch cycle.
func (e *Engine) archiveSnapshot(ctx context.Context, snapshot CachedSnapshot, logger *slog.Logger) {
	if e.cfg.dbQueries == nil {
		return
	}
	params, err := snapshotToUpsertTimingsDayParams(snapshot, e.now().UTC())
	if err != nil {
		logger.Warn("could not encode snapshot for archive", "error", err)
		return
	}
	if _, err := e.cfg.dbQueries.UpsertTimingsDay(ctx, params); err != nil {
		logger.Warn("could not archive snapshot", "error", err)
	}
}

// State returns a copy of the engine's current view for the HTTP
// handlers: the active snapshot, whether it came from the offline cache,
// and the next prayer with its countdown at the given instant.
func (e *Engine) State(now time.Time) (snapshot *CachedSnapshot, cached bool, next *NextPrayer, cd Countdown) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snapshot == nil {
		return nil, false, nil, Countdown{}
	}
	snapCopy := *e.snapshot
	next, cd = resolveNext(e.snapshot.Timings, e.next, now)
	e.next = next
	return &snapCopy, e.cached, next, cd
}
