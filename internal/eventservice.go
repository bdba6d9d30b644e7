package internal

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// EventService provides service functions for reading the crawled events
type EventService interface {
	List(ctx context.Context, search *Search) ([]models.Event, uint, error)
	Get(ctx context.Context, id string) (*models.Event, error)
}

// -- EventService implementation --------------------------------------------------------------------------------------

type eventService struct {
	repo   repos.EventRepo
	logger *logrus.Entry
}

// NewEventService creates a new event service instance
func NewEventService(repo repos.EventRepo, logger *logrus.Entry) EventService {
	return &eventService{
		repo:   repo,
		logger: logger,
	}
}

// List searches for events with a name matching the given search term. Deleted events are not listed
func (s *eventService) List(ctx context.Context, search *Search) ([]models.Event, uint, error) {
	events, numRows, err := s.repo.Find(search.Search, search.Offset, search.Limit)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			log.FldSearch: search.Search,
			log.FldOffset: search.Offset,
			log.FldLimit:  search.Limit,
		}).Error("Event search failed")
		return nil, 0, storageError("Error while searching events", err)
	}
	return events, numRows, nil
}

// Get returns the event with the given ID
func (s *eventService) Get(ctx context.Context, id string) (*models.Event, error) {
	ev, err := s.repo.GetByID(id)
	if err != nil {
		switch errors.Cause(err) {
		case repos.ErrEntityNotExisting:
			return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event '%s' does not exist", id),
			)
		case repos.ErrInvalidID:
			return nil, MakeError(http.StatusBadRequest, ErrCodeInvalidID,
				fmt.Sprintf("'%s' is not a valid event ID", id),
			)
		}
		return nil, storageError(fmt.Sprintf("Error while retrieving event '%s'", id), err)
	}
	return ev, nil
}
