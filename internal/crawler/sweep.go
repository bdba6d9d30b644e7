package crawler

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/metrics"
	"github.com/derWhity/eventlink/internal/repos"
)

// SweepStats are the counters of one expiration sweep
type SweepStats struct {
	Checked uint `json:"checked"`
	Expired uint `json:"expired"`
	Failed  uint `json:"failed"`
}

// Sweeper sets all stored events inactive whose sale window has ended
type Sweeper struct {
	repo   repos.EventRepo
	logger *logrus.Entry
	now    func() time.Time
}

// NewSweeper creates a new sweeper working on the given repository
func NewSweeper(repo repos.EventRepo, logger *logrus.Entry) *Sweeper {
	return &Sweeper{
		repo:   repo,
		logger: logger.WithField(log.FldCategory, log.CategoryEvent),
		now:    time.Now,
	}
}

// Sweep checks every stored event. Events that are already inactive or have no end of sale in the past are left
// untouched
func (s *Sweeper) Sweep() (SweepStats, error) {
	var stats SweepStats
	events, err := s.repo.All()
	if err != nil {
		return stats, errors.Wrap(err, "Sweep: cannot load events")
	}
	now := s.now()
	for i := range events {
		ev := events[i]
		stats.Checked++
		if !ev.ExpireIfPast(now) {
			continue
		}
		if err := s.repo.Replace(ev.ID, &ev); err != nil {
			stats.Failed++
			s.logger.WithError(err).WithField(log.FldID, ev.ID).Error("Failed to set event inactive")
			continue
		}
		stats.Expired++
		metrics.EventsExpiredTotal.Inc()
	}
	s.logger.WithFields(logrus.Fields{
		log.FldCategory: log.CategoryStatistics,
		"checked":       stats.Checked,
		"expired":       stats.Expired,
		log.FldFailed:   stats.Failed,
	}).Infof("Expiration statistics: Checked (%d), Expired (%d), Error (%d).", stats.Checked, stats.Expired,
		stats.Failed)
	return stats, nil
}
