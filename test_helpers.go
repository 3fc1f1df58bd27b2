package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/emre-ozel/prayertimes/internal/database"
)

// --- Mocks ---

// mockGeoIPService is a mock for the GeoIPService interface.
type mockGeoIPService struct {
	LocateFunc func(ctx context.Context) (GeoIPLocation, error)
}

func (m *mockGeoIPService) Locate(ctx context.Context) (GeoIPLocation, error) {
	if m.LocateFunc != nil {
		return m.LocateFunc(ctx)
	}
	return GeoIPLocation{}, errors.New("LocateFunc not implemented in mock")
}

// mockTimingsService is a mock for the TimingsService interface.
type mockTimingsService struct {
	FetchTimingsFunc func(ctx context.Context, coords Coordinates, method int, dateKey string) (DailyTimings, error)
}

func (m *mockTimingsService) FetchTimings(ctx context.Context, coords Coordinates, method int, dateKey string) (DailyTimings, error) {
	if m.FetchTimingsFunc != nil {
		return m.FetchTimingsFunc(ctx, coords, method, dateKey)
	}
	return nil, errors.New("FetchTimingsFunc not implemented in mock")
}

// mockCache is a mock for the Cache interface. The default Get reports a
// miss, which matches an empty cache.
type mockCache struct {
	getFunc   func(ctx context.Context, key string) (string, bool, error)
	setFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	flushFunc func(ctx context.Context) error
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return "", false, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *mockCache) Flush(ctx context.Context) error {
	if m.flushFunc != nil {
		return m.flushFunc(ctx)
	}
	return nil
}

// mockQuerier is a safe mock for the dbQuerier interface. It fails the
// test if any method without a configured func is called.
type mockQuerier struct {
	t *testing.T

	UpsertTimingsDayFunc      func(ctx context.Context, arg database.UpsertTimingsDayParams) (database.TimingsDay, error)
	GetTimingsDayFunc         func(ctx context.Context, dateKey string) (database.TimingsDay, error)
	ListRecentTimingsDaysFunc func(ctx context.Context, limit int32) ([]database.TimingsDay, error)
	DeleteAllTimingsDaysFunc  func(ctx context.Context) error

	upsertTimingsDayCalls int
}

func (m *mockQuerier) fail(method string) {
	m.t.Fatalf("unexpected call to mockQuerier method: %s", method)
}

func (m *mockQuerier) UpsertTimingsDay(ctx context.Context, arg database.UpsertTimingsDayParams) (database.TimingsDay, error) {
	m.upsertTimingsDayCalls++
	if m.UpsertTimingsDayFunc != nil {
		return m.UpsertTimingsDayFunc(ctx, arg)
	}
	m.fail("UpsertTimingsDay")
	return database.TimingsDay{}, nil
}

func (m *mockQuerier) GetTimingsDay(ctx context.Context, dateKey string) (database.TimingsDay, error) {
	if m.GetTimingsDayFunc != nil {
		return m.GetTimingsDayFunc(ctx, dateKey)
	}
	m.fail("GetTimingsDay")
	return database.TimingsDay{}, nil
}

func (m *mockQuerier) ListRecentTimingsDays(ctx context.Context, limit int32) ([]database.TimingsDay, error) {
	if m.ListRecentTimingsDaysFunc != nil {
		return m.ListRecentTimingsDaysFunc(ctx, limit)
	}
	m.fail("ListRecentTimingsDays")
	return nil, nil
}

func (m *mockQuerier) DeleteAllTimingsDays(ctx context.Context) error {
	if m.DeleteAllTimingsDaysFunc != nil {
		return m.DeleteAllTimingsDaysFunc(ctx)
	}
	m.fail("DeleteAllTimingsDays")
	return nil
}

// mockNotification records one delivered notification.
type mockNotification struct {
	title string
	body  string
	icon  string
}

// mockNotificationSink is a mock for the NotificationSink interface.
type mockNotificationSink struct {
	mu    sync.Mutex
	calls []mockNotification
	err   error
}

func (m *mockNotificationSink) Notify(title, body, icon string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockNotification{title: title, body: body, icon: icon})
	return m.err
}

func (m *mockNotificationSink) notifications() []mockNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockNotification(nil), m.calls...)
}

// mockRenderTarget is a mock for the RenderTarget interface.
type mockRenderTarget struct {
	mu        sync.Mutex
	panels    []string
	locations []string
	menus     [][]MenuEntry
}

func (m *mockRenderTarget) RenderPanel(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panels = append(m.panels, label)
}

func (m *mockRenderTarget) RenderMenu(location string, entries []MenuEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, location)
	m.menus = append(m.menus, entries)
}

func (m *mockRenderTarget) lastPanel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.panels) == 0 {
		return ""
	}
	return m.panels[len(m.panels)-1]
}

func (m *mockRenderTarget) lastLocation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.locations) == 0 {
		return ""
	}
	return m.locations[len(m.locations)-1]
}

// --- Test configuration ---

type testAPIConfig struct {
	apiConfig   *apiConfig
	settings    *memorySettings
	mockDB      *mockQuerier
	mockCache   *mockCache
	mockGeoIP   *mockGeoIPService
	mockTimings *mockTimingsService
}

// newTestAPIConfig builds an apiConfig wired entirely to mocks, with the
// same defaults the production config seeds from the environment.
func newTestAPIConfig(t *testing.T) *testAPIConfig {
	settings := newMemorySettings(map[string]any{
		settingAutoLocation:         true,
		settingLatitude:             41.0082,
		settingLongitude:            28.9784,
		settingCalculationMethod:    13,
		settingLanguage:             "tr",
		settingNotificationsEnabled: true,
		settingReminderEnabled:      true,
		settingReminderMinutes:      10,
	})

	mockDB := &mockQuerier{t: t}
	cache := &mockCache{}
	geoip := &mockGeoIPService{}
	timings := &mockTimingsService{}

	cfg := &apiConfig{
		settings:     settings,
		dbQueries:    mockDB,
		cache:        cache,
		geoip:        geoip,
		timings:      timings,
		tickInterval: time.Second,
		port:         "8080",
		devMode:      true,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	return &testAPIConfig{
		apiConfig:   cfg,
		settings:    settings,
		mockDB:      mockDB,
		mockCache:   cache,
		mockGeoIP:   geoip,
		mockTimings: timings,
	}
}

// testTimings is a fixed schedule used across tests:
// Fajr 05:00, Sunrise 06:30, Dhuhr 13:00, Asr 15:45, Maghrib 18:20, Isha 19:45.
func testTimings() DailyTimings {
	return DailyTimings{
		PrayerFajr:    {Hour: 5, Minute: 0},
		PrayerSunrise: {Hour: 6, Minute: 30},
		PrayerDhuhr:   {Hour: 13, Minute: 0},
		PrayerAsr:     {Hour: 15, Minute: 45},
		PrayerMaghrib: {Hour: 18, Minute: 20},
		PrayerIsha:    {Hour: 19, Minute: 45},
	}
}

// testClock returns an instant on 15 June 2025 at the given wall time.
func testClock(hour, minute, second int) time.Time {
	return time.Date(2025, time.June, 15, hour, minute, second, 0, time.UTC)
}

func newTestEngine(t *testing.T) (*Engine, *testAPIConfig, *mockNotificationSink, *mockRenderTarget) {
	testCfg := newTestAPIConfig(t)
	notifier := &mockNotificationSink{}
	render := &mockRenderTarget{}
	engine := NewEngine(testCfg.apiConfig, notifier, render)
	return engine, testCfg, notifier, render
}
