package cleanup

import (
	"time"

	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/storage"
)

// Scheduler prunes aged rows from the results ledger on a fixed interval.
type Scheduler struct {
	ledger   *storage.Ledger
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
	log      *logger.Logger
}

// NewScheduler creates a ledger retention scheduler.
func NewScheduler(ledger *storage.Ledger, interval, maxAge time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		ledger:   ledger,
		interval: interval,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
		log:      log.WithComponent("cleanup"),
	}
}

// Start begins the retention scheduler. It runs one prune immediately and
// then once per interval until Stop is called.
func (s *Scheduler) Start() {
	s.prune()

	ticker := time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.prune()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	s.log.WithFields(map[string]interface{}{
		"interval": s.interval.String(),
		"max_age":  s.maxAge.String(),
	}).Info("Retention scheduler started")
}

// Stop stops the retention scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.log.Info("Retention scheduler stopped")
}

func (s *Scheduler) prune() {
	removed, err := s.ledger.PruneOlderThan(s.maxAge)
	if err != nil {
		s.log.WithError(err).Error("Ledger prune failed")
		return
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("Pruned aged ledger rows")
	}
}
