package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxpal/internal/availability"
	"github.com/danpilch/maxpal/internal/config"
)

type resolver interface {
	Resolve(ctx context.Context, q availability.Query) availability.Result
}

type notifier interface {
	SendAvailability(from, to, date string, hours []string) error
}

type AvailabilityMonitor struct {
	resolver   resolver
	notifier   notifier
	cardNumber string
	logger     *logrus.Logger

	mu       sync.Mutex
	notified map[string]map[string]bool
}

// NewAvailabilityMonitor watches journeys with cardNumber unless a journey
// carries its own.
func NewAvailabilityMonitor(res resolver, n notifier, cardNumber string, logger *logrus.Logger) *AvailabilityMonitor {
	return &AvailabilityMonitor{
		resolver:   res,
		notifier:   n,
		cardNumber: cardNumber,
		logger:     logger,
		notified:   make(map[string]map[string]bool),
	}
}

func (m *AvailabilityMonitor) ResetNotificationState() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = make(map[string]map[string]bool)
}

// Check looks up free seats for j on the day of now and notifies the hours
// that were not reported before.
func (m *AvailabilityMonitor) Check(ctx context.Context, j config.JourneyConfig, now time.Time) error {
	from, to, err := j.Window(now)
	if err != nil {
		return fmt.Errorf("building window: %w", err)
	}
	if now.After(to) {
		m.logger.WithField("journey", j.Key()).Debug("window already passed")
		return nil
	}
	if now.After(from) {
		from = now
	}

	card := j.CardNumber
	if card == "" {
		card = m.cardNumber
	}
	if card == "" {
		return fmt.Errorf("no card number for journey %s", j.Key())
	}

	result := m.resolver.Resolve(ctx, availability.Query{
		Origin:      j.Origin,
		Destination: j.Destination,
		From:        from,
		To:          to,
		CardNumber:  card,
	})

	m.logger.WithFields(logrus.Fields{
		"journey":   j.Key(),
		"available": result.Available,
		"hours":     result.Hours,
	}).Info("checked availability")

	if !result.Available {
		return nil
	}

	date := to.Format("2006-01-02")
	fresh := m.markNotified(j.Key()+"|"+date, result.Hours)
	if len(fresh) == 0 {
		m.logger.WithField("journey", j.Key()).Debug("availability already notified")
		return nil
	}

	m.logger.WithFields(logrus.Fields{
		"journey": j.Key(),
		"hours":   fresh,
	}).Warn("free seats found")

	return m.notifier.SendAvailability(j.Origin, j.Destination, date, fresh)
}

func (m *AvailabilityMonitor) markNotified(key string, hours []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen, ok := m.notified[key]
	if !ok {
		seen = make(map[string]bool)
		m.notified[key] = seen
	}

	var fresh []string
	for _, h := range hours {
		if !seen[h] {
			seen[h] = true
			fresh = append(fresh, h)
		}
	}
	return fresh
}
