package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxpal/internal/config"
	"github.com/danpilch/maxpal/internal/tz"
)

type checker interface {
	Check(ctx context.Context, j config.JourneyConfig, now time.Time) error
	ResetNotificationState()
}

type Scheduler struct {
	cfg     *config.Config
	monitor checker
	logger  *logrus.Logger
	now     func() time.Time

	mu         sync.Mutex
	currentDay string
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func NewScheduler(cfg *config.Config, monitor checker, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		monitor: monitor,
		logger:  logger,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Watch.Interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped: context cancelled")
			return
		case <-s.stopCh:
			s.logger.Info("scheduler stopped: stop signal received")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := tz.In(s.now())
	today := now.Format("2006-01-02")

	s.mu.Lock()
	if today != s.currentDay {
		if s.currentDay != "" {
			s.logger.Info("day changed, resetting notification state")
			s.monitor.ResetNotificationState()
		}
		s.currentDay = today
	}
	s.mu.Unlock()

	journeys := s.activeJourneys(now)
	if len(journeys) == 0 {
		s.logger.WithField("weekday", now.Weekday().String()).Debug("no journeys to check")
		return
	}

	for _, j := range journeys {
		if ctx.Err() != nil {
			return
		}
		if err := s.monitor.Check(ctx, j, now); err != nil {
			s.logger.WithFields(logrus.Fields{
				"journey": j.Key(),
				"error":   err,
			}).Error("availability check failed")
		}
	}
}

// activeJourneys keeps dated journeys that are not over yet and recurring
// journeys configured for today's weekday.
func (s *Scheduler) activeJourneys(now time.Time) []config.JourneyConfig {
	today := now.Format("2006-01-02")

	var active []config.JourneyConfig
	for _, j := range s.cfg.Watch.Journeys {
		if j.Date != "" {
			if j.Date < today {
				continue
			}
		} else if !j.IsActiveDay(now.Weekday()) {
			continue
		}
		active = append(active, j)
	}
	return active
}
