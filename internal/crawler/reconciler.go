package crawler

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/metrics"
	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// Reconciler writes crawled events into the event storage. New events are created, known ones updated
type Reconciler struct {
	repo   repos.EventRepo
	logger *logrus.Entry
	now    func() time.Time
}

// NewReconciler creates a new reconciler working on the given repository
func NewReconciler(repo repos.EventRepo, logger *logrus.Entry) *Reconciler {
	return &Reconciler{
		repo:   repo,
		logger: logger.WithField(log.FldCategory, log.CategoryEvent),
		now:    time.Now,
	}
}

// Reconcile stores all events given. Each event is tried to be created first - if the storage already knows it, the
// stored event is updated instead. A failing event does not stop the others from being stored
func (r *Reconciler) Reconcile(events []models.Event) Stats {
	var stats Stats
	now := r.now()
	for i := range events {
		ev := events[i]
		ev.ExpireIfPast(now)
		logger := r.logger.WithFields(logrus.Fields{
			log.FldProvider:        ev.ProviderName,
			log.FldProviderEventID: ev.ProviderEventID,
		})
		err := r.repo.Create(&ev)
		switch errors.Cause(err) {
		case nil:
			stats.Created++
			metrics.EventsReconciledTotal.WithLabelValues(ev.ProviderName, metrics.OutcomeCreated).Inc()
			logger.WithField(log.FldID, ev.ID).Debug("Event created")
			continue
		case repos.ErrEntityExists:
			err = r.update(&ev, now)
			if err == nil {
				stats.Updated++
				metrics.EventsReconciledTotal.WithLabelValues(ev.ProviderName, metrics.OutcomeUpdated).Inc()
				logger.WithField(log.FldID, ev.ID).Debug("Event updated")
				continue
			}
			err = errors.Wrap(err, "update failed")
		default:
			err = errors.Wrap(err, "create failed")
		}
		stats.Failed++
		metrics.EventsReconciledTotal.WithLabelValues(ev.ProviderName, metrics.OutcomeFailed).Inc()
		logger.WithError(err).Error("Failed to store event")
	}
	return stats
}

// update replaces the stored version of the event with the given one
func (r *Reconciler) update(ev *models.Event, now time.Time) error {
	stored, err := r.repo.GetByProviderEventID(ev.ProviderName, ev.ProviderEventID)
	if err != nil {
		return err
	}
	merged := mergeEvents(*stored, *ev, now)
	if err := r.repo.Replace(stored.ID, &merged); err != nil {
		return err
	}
	*ev = merged
	return nil
}

// mergeEvents applies the crawled event onto the stored one. Everything the provider reports is taken over while the
// identity, the creation date and the deletion state of the stored event are kept
func mergeEvents(stored models.Event, crawled models.Event, now time.Time) models.Event {
	merged := crawled
	merged.ID = stored.ID
	merged.CreatedAt = stored.CreatedAt
	merged.IsDeleted = stored.IsDeleted
	merged.DeletedAt = stored.DeletedAt
	merged.ReactivatedAt = stored.ReactivatedAt
	if stored.Inactive() && crawled.Active() {
		t := now
		merged.ReactivatedAt = &t
	}
	return merged
}
