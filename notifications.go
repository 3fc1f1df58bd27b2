package main

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// NotificationSink displays a transient alert. Implementations must be
// safe to call from the engine's tick flow; errors are reported back but
// the engine only ever logs them.
type NotificationSink interface {
	Notify(title, body, icon string) error
}

// notifySendSink bridges notifications to the desktop via notify-send.
type notifySendSink struct {
	path string
}

func newNotifySendSink() (*notifySendSink, error) {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		return nil, fmt.Errorf("notify-send not available: %w", err)
	}
	return &notifySendSink{path: path}, nil
}

func (s *notifySendSink) Notify(title, body, icon string) error {
	cmd := exec.Command(s.path, "-a", "Prayer Times", "-u", "critical", "-i", icon, title, body)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify-send failed: %w", err)
	}
	return nil
}

// logSink is the fallback sink for headless hosts: notifications land in
// the structured log instead of a message tray.
type logSink struct {
	logger *slog.Logger
}

func (s *logSink) Notify(title, body, icon string) error {
	s.logger.Info("notification", "title", title, "body", body, "icon", icon)
	return nil
}

// NotificationGate is the per-day idempotency gate. On-time and reminder
// firings are tracked independently per prayer; a prayer can appear in
// each set at most once per calendar day.
type NotificationGate struct {
	notified map[PrayerName]struct{}
	reminded map[PrayerName]struct{}
}

func newNotificationGate() *NotificationGate {
	return &NotificationGate{
		notified: make(map[PrayerName]struct{}),
		reminded: make(map[PrayerName]struct{}),
	}
}

// Evaluate decides, for the current countdown of m whole minutes to the
// given prayer, whether an on-time and/or a reminder notification is due,
// and marks whatever it returns as fired. Ticks observing the same state
// again get false.
func (g *NotificationGate) Evaluate(name PrayerName, m int, reminderEnabled bool, reminderThreshold int) (onTime, reminder bool) {
	if m <= 0 {
		if _, done := g.notified[name]; !done {
			g.notified[name] = struct{}{}
			onTime = true
		}
	}

	if reminderEnabled && m > 0 && m <= reminderThreshold {
		if _, done := g.reminded[name]; !done {
			g.reminded[name] = struct{}{}
			reminder = true
		}
	}

	return onTime, reminder
}

// ResetDay clears both sets. The engine calls this exactly when a fetch
// succeeds for a new calendar date; a same-day refresh must not re-arm
// notifications that already fired.
func (g *NotificationGate) ResetDay() {
	g.notified = make(map[PrayerName]struct{})
	g.reminded = make(map[PrayerName]struct{})
}
