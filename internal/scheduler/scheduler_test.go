package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxpal/internal/config"
	"github.com/danpilch/maxpal/internal/tz"
)

type fakeChecker struct {
	mu      sync.Mutex
	checked []string
	resets  int
	err     error
}

func (f *fakeChecker) Check(_ context.Context, j config.JourneyConfig, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, j.Key())
	return f.err
}

func (f *fakeChecker) ResetNotificationState() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeChecker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checked)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Watch.Journeys = []config.JourneyConfig{
		{Origin: "FRPAR", Destination: "FRLYS", Date: "2024-01-01", From: "08:00", To: "20:00"},
		{Origin: "FRPAR", Destination: "FRMRS", Date: "2023-12-31", From: "08:00", To: "20:00"},
		{Origin: "FRLYS", Destination: "FRPAR", From: "17:00", To: "21:00", Days: []string{"monday"}},
		{Origin: "FRLYS", Destination: "FRNIC", From: "17:00", To: "21:00", Days: []string{"sunday"}},
	}
	return cfg
}

func newTestScheduler(cfg *config.Config, c checker, now time.Time) *Scheduler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewScheduler(cfg, c, logger)
	s.now = func() time.Time { return now }
	return s
}

func TestTickChecksActiveJourneys(t *testing.T) {
	c := &fakeChecker{}
	// 2024-01-01 is a Monday.
	s := newTestScheduler(testConfig(), c, time.Date(2024, 1, 1, 7, 0, 0, 0, tz.Paris))

	s.tick(context.Background())

	if len(c.checked) != 2 {
		t.Fatalf("expected 2 checks, got %v", c.checked)
	}
	if c.checked[0] != "FRPAR-FRLYS@2024-01-01 08:00-20:00" || c.checked[1] != "FRLYS-FRPAR@daily 17:00-21:00" {
		t.Errorf("unexpected journeys checked: %v", c.checked)
	}
}

func TestTickResetsOnDayChange(t *testing.T) {
	c := &fakeChecker{}
	now := time.Date(2024, 1, 1, 7, 0, 0, 0, tz.Paris)
	s := newTestScheduler(testConfig(), c, now)

	s.tick(context.Background())
	s.tick(context.Background())
	if c.resets != 0 {
		t.Errorf("expected no reset on the same day, got %d", c.resets)
	}

	s.now = func() time.Time { return now.Add(24 * time.Hour) }
	s.tick(context.Background())
	if c.resets != 1 {
		t.Errorf("expected 1 reset after day change, got %d", c.resets)
	}
}

func TestTickContinuesAfterFailure(t *testing.T) {
	c := &fakeChecker{err: errors.New("pushover down")}
	s := newTestScheduler(testConfig(), c, time.Date(2024, 1, 1, 7, 0, 0, 0, tz.Paris))

	s.tick(context.Background())

	if len(c.checked) != 2 {
		t.Errorf("expected every journey to be checked, got %v", c.checked)
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	c := &fakeChecker{}
	s := newTestScheduler(testConfig(), c, time.Date(2024, 1, 1, 7, 0, 0, 0, tz.Paris))

	s.Start(context.Background())
	deadline := time.Now().Add(time.Second)
	for c.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if c.count() == 0 {
		t.Error("expected an immediate pass on start")
	}
}
