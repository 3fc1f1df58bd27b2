package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emre-ozel/prayertimes/internal/database"
)

func TestEngine_Ticks(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	tickChan := make(chan time.Time)
	engine.tickChan = tickChan

	fetchReasons := make(chan string, 4)
	engine.fetchJob = func(reason string) { fetchReasons <- reason }

	var wg sync.WaitGroup
	var tickCalled bool
	engine.tickJob = func() {
		tickCalled = true
		wg.Done()
	}

	engine.Start()
	defer engine.Stop()

	select {
	case reason := <-fetchReasons:
		if reason != "startup" {
			t.Errorf("startup fetch reason = %q, want %q", reason, "startup")
		}
	case <-time.After(time.Second):
		t.Fatal("expected a startup fetch, got none")
	}

	wg.Add(1)
	tickChan <- time.Now()
	wg.Wait()

	if !tickCalled {
		t.Error("expected tick job to be called, but it wasn't")
	}
}

func TestEngine_Stop(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	engine.fetchJob = func(reason string) {}
	engine.tickJob = func() {}

	engine.Start()
	engine.Stop()
	// A second Stop must not panic on the closed channel.
	engine.Stop()
}

func TestEngine_SettingsReactions(t *testing.T) {
	engine, testCfg, _, render := newTestEngine(t)
	engine.now = func() time.Time { return testClock(14, 0, 0) }

	fetchReasons := make(chan string, 4)
	engine.fetchJob = func(reason string) { fetchReasons <- reason }

	engine.snapshot = &CachedSnapshot{
		Timings:  testTimings(),
		Location: LocationInfo{City: "Istanbul", Source: LocationSourceDetected},
		DateKey:  "15-6-2025",
	}

	t.Run("Method Change Triggers Refetch", func(t *testing.T) {
		engine.onSettingsChanged(settingCalculationMethod)
		select {
		case reason := <-fetchReasons:
			if reason != "settings-change" {
				t.Errorf("fetch reason = %q, want %q", reason, "settings-change")
			}
		case <-time.After(time.Second):
			t.Fatal("expected a fetch after a method change, got none")
		}
	})

	t.Run("Language Change Only Relabels", func(t *testing.T) {
		testCfg.settings.SetString(settingLanguage, "de")
		engine.onSettingsChanged(settingLanguage)

		select {
		case reason := <-fetchReasons:
			t.Fatalf("unexpected fetch with reason %q after a language change", reason)
		case <-time.After(50 * time.Millisecond):
		}

		// At 14:00 the next prayer is Asr, 1:45:00 away, now in German.
		if got := render.lastPanel(); got != "Asr 1:45:00" {
			t.Errorf("panel label = %q, want %q", got, "Asr 1:45:00")
		}
	})

	t.Run("Unrelated Key Does Nothing", func(t *testing.T) {
		panelsBefore := len(render.panels)
		engine.onSettingsChanged(settingReminderMinutes)

		select {
		case reason := <-fetchReasons:
			t.Fatalf("unexpected fetch with reason %q", reason)
		case <-time.After(50 * time.Millisecond):
		}
		if len(render.panels) != panelsBefore {
			t.Error("render target was painted for an unrelated settings key")
		}
	})
}

func TestEngine_OnTick_RendersCountdown(t *testing.T) {
	engine, _, _, render := newTestEngine(t)
	engine.now = func() time.Time { return testClock(14, 0, 0) }
	engine.snapshot = &CachedSnapshot{
		Timings:  testTimings(),
		Location: LocationInfo{City: "Istanbul", Source: LocationSourceDetected},
		DateKey:  "15-6-2025",
	}
	engine.lastFetchDate = "15-6-2025"

	engine.onTick()

	if got := render.lastPanel(); got != "İkindi 1:45:00" {
		t.Errorf("panel label = %q, want %q", got, "İkindi 1:45:00")
	}
	if got := render.lastLocation(); got != "📍 Istanbul" {
		t.Errorf("location line = %q, want %q", got, "📍 Istanbul")
	}
}

func TestEngine_OnTick_DateRollover(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	engine.now = func() time.Time { return testClock(0, 1, 0) }
	engine.snapshot = &CachedSnapshot{Timings: testTimings(), DateKey: "14-6-2025"}
	engine.lastFetchDate = "14-6-2025"

	fetchReasons := make(chan string, 4)
	engine.fetchJob = func(reason string) { fetchReasons <- reason }

	engine.onTick()

	select {
	case reason := <-fetchReasons:
		if reason != "date-rollover" {
			t.Errorf("fetch reason = %q, want %q", reason, "date-rollover")
		}
	case <-time.After(time.Second):
		t.Fatal("expected a rollover fetch, got none")
	}
}

func TestEngine_OnTick_NoRolloverSameDay(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	engine.now = func() time.Time { return testClock(14, 0, 0) }
	engine.snapshot = &CachedSnapshot{Timings: testTimings(), DateKey: "15-6-2025"}
	engine.lastFetchDate = "15-6-2025"

	fetchReasons := make(chan string, 4)
	engine.fetchJob = func(reason string) { fetchReasons <- reason }

	engine.onTick()

	select {
	case reason := <-fetchReasons:
		t.Fatalf("unexpected fetch with reason %q on the same day", reason)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_OnTick_RolloverSkippedWhileFetching(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	engine.now = func() time.Time { return testClock(0, 1, 0) }
	engine.snapshot = &CachedSnapshot{Timings: testTimings(), DateKey: "14-6-2025"}
	engine.lastFetchDate = "14-6-2025"
	engine.fetching.Store(true)

	fetchReasons := make(chan string, 4)
	engine.fetchJob = func(reason string) { fetchReasons <- reason }

	engine.onTick()

	select {
	case reason := <-fetchReasons:
		t.Fatalf("unexpected fetch with reason %q while another is in flight", reason)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_EvaluateNotifications(t *testing.T) {
	engine, testCfg, notifier, _ := newTestEngine(t)
	next := &NextPrayer{Name: PrayerAsr, Time: ClockTime{Hour: 15, Minute: 45}, TotalMinutes: 945}

	// 15:35, ten minutes out: the reminder fires.
	engine.evaluateNotifications(next, testClock(15, 35, 0))
	calls := notifier.notifications()
	if len(calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(calls))
	}
	if calls[0].icon != "alarm-symbolic" {
		t.Errorf("reminder icon = %q, want %q", calls[0].icon, "alarm-symbolic")
	}
	if calls[0].title != "Namaz Hatırlatma" {
		t.Errorf("reminder title = %q, want %q", calls[0].title, "Namaz Hatırlatma")
	}
	if calls[0].body != "İkindi vaktine 10 dakika kaldı" {
		t.Errorf("reminder body = %q, want %q", calls[0].body, "İkindi vaktine 10 dakika kaldı")
	}

	// The next tick inside the window stays silent.
	engine.evaluateNotifications(next, testClock(15, 36, 0))
	if got := len(notifier.notifications()); got != 1 {
		t.Fatalf("reminder fired again, %d notifications total", got)
	}

	// 15:45: the on-time notification fires once.
	engine.evaluateNotifications(next, testClock(15, 45, 0))
	calls = notifier.notifications()
	if len(calls) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(calls))
	}
	if calls[1].icon != "appointment-soon-symbolic" {
		t.Errorf("on-time icon = %q, want %q", calls[1].icon, "appointment-soon-symbolic")
	}
	if calls[1].title != "Namaz Vakti" {
		t.Errorf("on-time title = %q, want %q", calls[1].title, "Namaz Vakti")
	}
	if calls[1].body != "İkindi vakti girdi" {
		t.Errorf("on-time body = %q, want %q", calls[1].body, "İkindi vakti girdi")
	}

	engine.evaluateNotifications(next, testClock(15, 46, 0))
	if got := len(notifier.notifications()); got != 2 {
		t.Fatalf("on-time notification fired again, %d notifications total", got)
	}

	// Disabling notifications mutes everything, including new prayers.
	testCfg.settings.SetBool(settingNotificationsEnabled, false)
	maghrib := &NextPrayer{Name: PrayerMaghrib, Time: ClockTime{Hour: 18, Minute: 20}, TotalMinutes: 1100}
	engine.evaluateNotifications(maghrib, testClock(18, 20, 0))
	if got := len(notifier.notifications()); got != 2 {
		t.Fatalf("notification fired while disabled, %d notifications total", got)
	}

	// A nil next prayer is a no-op.
	engine.evaluateNotifications(nil, testClock(18, 20, 0))
}

func TestEngine_ApplyFetched(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	snapshot := CachedSnapshot{Timings: testTimings(), DateKey: "15-6-2025"}

	engine.fetchSeq.Store(2)

	if engine.applyFetched(1, snapshot) {
		t.Error("stale sequence was applied")
	}
	if engine.snapshot != nil {
		t.Error("stale fetch overwrote the snapshot")
	}

	// Same-day refresh: the gate state survives.
	engine.lastFetchDate = "15-6-2025"
	engine.gate.Evaluate(PrayerAsr, 0, false, 10)

	if !engine.applyFetched(2, snapshot) {
		t.Fatal("current sequence was rejected")
	}
	if onTime, _ := engine.gate.Evaluate(PrayerAsr, 0, false, 10); onTime {
		t.Error("same-day fetch re-armed the notification gate")
	}

	// New calendar date: the gate resets.
	engine.fetchSeq.Store(3)
	if !engine.applyFetched(3, CachedSnapshot{Timings: testTimings(), DateKey: "16-6-2025"}) {
		t.Fatal("current sequence was rejected")
	}
	if onTime, _ := engine.gate.Evaluate(PrayerAsr, 0, false, 10); !onTime {
		t.Error("new-day fetch did not reset the notification gate")
	}
	if engine.lastFetchDate != "16-6-2025" {
		t.Errorf("lastFetchDate = %q, want %q", engine.lastFetchDate, "16-6-2025")
	}
}

func TestEngine_RunFetchCycle_Success(t *testing.T) {
	engine, testCfg, _, render := newTestEngine(t)
	engine.now = func() time.Time { return testClock(14, 0, 0) }

	testCfg.mockGeoIP.LocateFunc = func(ctx context.Context) (GeoIPLocation, error) {
		return GeoIPLocation{
			Coordinates: Coordinates{Latitude: 41.0082, Longitude: 28.9784},
			City:        "Istanbul",
		}, nil
	}
	testCfg.mockTimings.FetchTimingsFunc = func(ctx context.Context, coords Coordinates, method int, dateKey string) (DailyTimings, error) {
		if dateKey != "15-6-2025" {
			t.Errorf("fetch date key = %q, want %q", dateKey, "15-6-2025")
		}
		if method != 13 {
			t.Errorf("fetch method = %d, want 13", method)
		}
		return testTimings(), nil
	}
	testCfg.mockDB.UpsertTimingsDayFunc = func(ctx context.Context, arg database.UpsertTimingsDayParams) (database.TimingsDay, error) {
		if arg.DateKey != "15-6-2025" {
			t.Errorf("archived date key = %q, want %q", arg.DateKey, "15-6-2025")
		}
		return database.TimingsDay{}, nil
	}

	var savedSnapshot bool
	testCfg.mockCache.setFunc = func(ctx context.Context, key string, value any, expiration time.Duration) error {
		if key == cacheKeySnapshot {
			savedSnapshot = true
		}
		return nil
	}

	engine.runFetchCycle("test")

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.snapshot == nil {
		t.Fatal("expected a snapshot after a successful fetch")
	}
	if engine.cached || engine.noData {
		t.Errorf("cached = %v, noData = %v, want both false", engine.cached, engine.noData)
	}
	if engine.lastFetchDate != "15-6-2025" {
		t.Errorf("lastFetchDate = %q, want %q", engine.lastFetchDate, "15-6-2025")
	}
	if !savedSnapshot {
		t.Error("snapshot was not persisted to the cache")
	}
	if testCfg.mockDB.upsertTimingsDayCalls != 1 {
		t.Errorf("archive upserts = %d, want 1", testCfg.mockDB.upsertTimingsDayCalls)
	}
	if got := render.lastPanel(); got != "İkindi 1:45:00" {
		t.Errorf("panel label = %q, want %q", got, "İkindi 1:45:00")
	}
}

func TestEngine_RunFetchCycle_FallbackToCache(t *testing.T) {
	engine, testCfg, _, render := newTestEngine(t)
	engine.now = func() time.Time { return testClock(14, 0, 0) }

	testCfg.mockGeoIP.LocateFunc = func(ctx context.Context) (GeoIPLocation, error) {
		return GeoIPLocation{}, errors.New("network down")
	}
	testCfg.mockTimings.FetchTimingsFunc = func(ctx context.Context, coords Coordinates, method int, dateKey string) (DailyTimings, error) {
		return nil, errors.New("network down")
	}

	cached, _ := json.Marshal(CachedSnapshot{
		Timings:  testTimings(),
		Location: LocationInfo{City: "Istanbul", Source: LocationSourceDetected},
		DateKey:  "14-6-2025",
	})
	testCfg.mockCache.getFunc = func(ctx context.Context, key string) (string, bool, error) {
		if key == cacheKeySnapshot {
			return string(cached), true, nil
		}
		return "", false, nil
	}

	engine.runFetchCycle("test")

	engine.mu.Lock()
	if engine.snapshot == nil {
		t.Fatal("expected the cached snapshot to be installed")
	}
	if !engine.cached {
		t.Error("cached = false, want true")
	}
	// The last fetch date stays empty so the next tick retries.
	if engine.lastFetchDate != "" {
		t.Errorf("lastFetchDate = %q, want empty", engine.lastFetchDate)
	}
	engine.mu.Unlock()

	if got := render.lastLocation(); !strings.Contains(got, "(Önbellek)") {
		t.Errorf("location line = %q, want the cached marker", got)
	}
}

func TestEngine_RunFetchCycle_NoData(t *testing.T) {
	engine, testCfg, _, render := newTestEngine(t)
	engine.now = func() time.Time { return testClock(14, 0, 0) }

	testCfg.mockGeoIP.LocateFunc = func(ctx context.Context) (GeoIPLocation, error) {
		return GeoIPLocation{}, errors.New("network down")
	}
	testCfg.mockTimings.FetchTimingsFunc = func(ctx context.Context, coords Coordinates, method int, dateKey string) (DailyTimings, error) {
		return nil, errors.New("network down")
	}

	engine.runFetchCycle("test")

	engine.mu.Lock()
	noData := engine.noData
	snapshot := engine.snapshot
	engine.mu.Unlock()

	if snapshot != nil {
		t.Error("expected no snapshot")
	}
	if !noData {
		t.Error("noData = false, want true")
	}
	if got := render.lastPanel(); got != "Veri yok" {
		t.Errorf("panel label = %q, want %q", got, "Veri yok")
	}
}

func TestEngine_State(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	snapshot, cached, next, cd := engine.State(testClock(14, 0, 0))
	if snapshot != nil || cached || next != nil || cd.TotalSeconds != 0 {
		t.Error("expected an empty state before the first fetch")
	}

	engine.snapshot = &CachedSnapshot{
		Timings:  testTimings(),
		Location: LocationInfo{City: "Istanbul"},
		DateKey:  "15-6-2025",
	}

	snapshot, _, next, cd = engine.State(testClock(14, 0, 0))
	if snapshot == nil {
		t.Fatal("expected a snapshot")
	}
	if next == nil || next.Name != PrayerAsr {
		t.Fatalf("next = %+v, want Asr", next)
	}
	if cd.TotalSeconds != 105*60 {
		t.Errorf("TotalSeconds = %d, want %d", cd.TotalSeconds, 105*60)
	}

	// The returned snapshot is a copy; mutating it leaves the engine alone.
	snapshot.DateKey = "mutated"
	if engine.snapshot.DateKey != "15-6-2025" {
		t.Error("State returned a reference to internal state")
	}
}
