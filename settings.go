package main

import "sync"

// This file implements the typed settings store the engine is driven by.
// On a desktop host these values mirror whatever the frontend persists
// (dconf, a config file); the daemon only needs typed reads, typed writes
// and change notifications.

const (
	settingAutoLocation         = "auto-location"
	settingLatitude             = "latitude"
	settingLongitude            = "longitude"
	settingCalculationMethod    = "calculation-method"
	settingLanguage             = "language"
	settingNotificationsEnabled = "notifications-enabled"
	settingReminderEnabled      = "reminder-enabled"
	settingReminderMinutes      = "reminder-minutes"
)

// settingsReaction tells the engine what a changed key invalidates.
type settingsReaction int

const (
	reactionNone settingsReaction = iota
	reactionRefetch
	reactionRelabel
)

// settingsReactions is the dispatch table consulted by the engine's
// settings listener. Location and method changes invalidate the fetched
// timings; a language change only invalidates rendered labels.
var settingsReactions = map[string]settingsReaction{
	settingAutoLocation:      reactionRefetch,
	settingLatitude:          reactionRefetch,
	settingLongitude:         reactionRefetch,
	settingCalculationMethod: reactionRefetch,
	settingLanguage:          reactionRelabel,
}

type SettingsStore interface {
	Bool(key string) bool
	Int(key string) int
	Float(key string) float64
	String(key string) string
	SetBool(key string, value bool)
	SetInt(key string, value int)
	SetFloat(key string, value float64)
	SetString(key string, value string)
	// Subscribe registers a listener called with the changed key. The
	// returned function removes the listener; after it returns the
	// listener is guaranteed not to be called again.
	Subscribe(fn func(key string)) func()
}

type memorySettings struct {
	mu        sync.RWMutex
	values    map[string]any
	listeners map[int]func(key string)
	nextID    int
}

func newMemorySettings(defaults map[string]any) *memorySettings {
	values := make(map[string]any, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}
	return &memorySettings{
		values:    values,
		listeners: make(map[int]func(key string)),
	}
}

func (s *memorySettings) Bool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.values[key].(bool)
	return v
}

func (s *memorySettings) Int(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.values[key].(int)
	return v
}

func (s *memorySettings) Float(key string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.values[key].(float64)
	return v
}

func (s *memorySettings) String(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.values[key].(string)
	return v
}

func (s *memorySettings) SetBool(key string, value bool)     { s.set(key, value) }
func (s *memorySettings) SetInt(key string, value int)       { s.set(key, value) }
func (s *memorySettings) SetFloat(key string, value float64) { s.set(key, value) }
func (s *memorySettings) SetString(key string, value string) { s.set(key, value) }

func (s *memorySettings) set(key string, value any) {
	s.mu.Lock()
	if s.values[key] == value {
		s.mu.Unlock()
		return
	}
	s.values[key] = value
	listeners := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(key)
	}
}

func (s *memorySettings) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// reminderMinutes reads the reminder threshold, clamped to the 1-120
// range the preferences UI enforces.
func reminderMinutes(s SettingsStore) int {
	m := s.Int(settingReminderMinutes)
	if m < 1 {
		return 1
	}
	if m > 120 {
		return 120
	}
	return m
}
