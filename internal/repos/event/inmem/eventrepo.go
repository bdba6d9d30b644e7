// Package inmem provides an event repository that holds the event data in-memory
package inmem

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// store is the state owned by the control goroutine
type store struct {
	events map[string]models.Event
	// natural key (provider name + provider event ID) to ID
	keys map[string]string
}

func naturalKey(providerName, providerEventID string) string {
	return providerName + "\x00" + providerEventID
}

// EventRepo is an event repository that stores the event data in-memory
type EventRepo struct {
	// exec is the channel requests are sent to. Each request runs inside the control goroutine
	exec chan<- func(s *store)
}

// New creates a new event repository instance
func New() *EventRepo {
	e := make(chan func(s *store))
	go control(e)
	return &EventRepo{exec: e}
}

// control is the goroutine owning the event data
func control(exec <-chan func(s *store)) {
	s := &store{
		events: make(map[string]models.Event),
		keys:   make(map[string]string),
	}
	for fn := range exec {
		fn(s)
	}
}

// do runs fn inside the control goroutine and waits for it to finish
func (r *EventRepo) do(fn func(s *store) error) error {
	answer := make(chan error)
	r.exec <- func(s *store) {
		answer <- fn(s)
	}
	return <-answer
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repos.ErrInvalidID
	}
	return nil
}

// copyEvent decouples the stored event from the caller - the slices and maps an event holds are shared otherwise
func copyEvent(ev models.Event) models.Event {
	ev.Classifications = append([]models.Classification(nil), ev.Classifications...)
	ev.PriceRanges = append([]models.PriceRange(nil), ev.PriceRanges...)
	ev.Venues = append([]models.Venue(nil), ev.Venues...)
	ev.Images = append([]models.Image(nil), ev.Images...)
	attractions := make([]models.Attraction, len(ev.Attractions))
	for i, a := range ev.Attractions {
		links := make(map[string][]models.Link, len(a.ExternalLinks))
		for platform, l := range a.ExternalLinks {
			links[platform] = append([]models.Link(nil), l...)
		}
		a.ExternalLinks = links
		attractions[i] = a
	}
	if ev.Attractions != nil {
		ev.Attractions = attractions
	}
	return ev
}

// Create creates a new event
func (r *EventRepo) Create(ev *models.Event) error {
	if err := repos.ValidateEvent(ev); err != nil {
		return err
	}
	return r.do(func(s *store) error {
		key := naturalKey(ev.ProviderName, ev.ProviderEventID)
		if _, ok := s.keys[key]; ok {
			return repos.ErrEntityExists
		}
		stored := copyEvent(*ev)
		stored.ID = uuid.New().String()
		stored.CreatedAt = time.Now().UTC()
		stored.ModifiedAt = stored.CreatedAt
		s.events[stored.ID] = stored
		s.keys[key] = stored.ID
		*ev = copyEvent(stored)
		return nil
	})
}

// Replace replaces the stored event having the given ID with the event provided
func (r *EventRepo) Replace(id string, ev *models.Event) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := repos.ValidateEvent(ev); err != nil {
		return err
	}
	return r.do(func(s *store) error {
		old, ok := s.events[id]
		if !ok {
			return repos.ErrEntityNotExisting
		}
		oldKey := naturalKey(old.ProviderName, old.ProviderEventID)
		newKey := naturalKey(ev.ProviderName, ev.ProviderEventID)
		if owner, taken := s.keys[newKey]; taken && owner != id {
			return repos.ErrEntityExists
		}
		stored := copyEvent(*ev)
		stored.ID = id
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = old.CreatedAt
		}
		stored.ModifiedAt = time.Now().UTC()
		delete(s.keys, oldKey)
		s.keys[newKey] = id
		s.events[id] = stored
		*ev = copyEvent(stored)
		return nil
	})
}

// GetByID returns the event with the given ID
func (r *EventRepo) GetByID(id string) (*models.Event, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var ret *models.Event
	err := r.do(func(s *store) error {
		ev, ok := s.events[id]
		if !ok {
			return repos.ErrEntityNotExisting
		}
		cp := copyEvent(ev)
		ret = &cp
		return nil
	})
	return ret, err
}

// GetByProviderEventID returns the event a provider knows under the given ID
func (r *EventRepo) GetByProviderEventID(providerName string, providerEventID string) (*models.Event, error) {
	var ret *models.Event
	err := r.do(func(s *store) error {
		id, ok := s.keys[naturalKey(providerName, providerEventID)]
		if !ok {
			return repos.ErrEntityNotExisting
		}
		cp := copyEvent(s.events[id])
		ret = &cp
		return nil
	})
	return ret, err
}

// sorted returns the events matching the filter ordered by name
func (s *store) sorted(filter func(ev *models.Event) bool) []models.Event {
	ret := []models.Event{}
	for _, ev := range s.events {
		if filter(&ev) {
			ret = append(ret, copyEvent(ev))
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Name != ret[j].Name {
			return ret[i].Name < ret[j].Name
		}
		return ret[i].ID < ret[j].ID
	})
	return ret
}

// Find searches for non-deleted events whose name contains the given search string - supports pagination
func (r *EventRepo) Find(search string, offset uint, limit uint) ([]models.Event, uint, error) {
	if limit == 0 {
		limit = repos.DefaultLimit
	}
	search = strings.ToLower(search)
	var ret []models.Event
	var total uint
	err := r.do(func(s *store) error {
		matches := s.sorted(func(ev *models.Event) bool {
			return !ev.IsDeleted && strings.Contains(strings.ToLower(ev.Name), search)
		})
		total = uint(len(matches))
		if offset >= total {
			ret = []models.Event{}
			return nil
		}
		end := offset + limit
		if end > total {
			end = total
		}
		ret = matches[offset:end]
		return nil
	})
	return ret, total, err
}

// All returns all stored events including the deleted ones
func (r *EventRepo) All() ([]models.Event, error) {
	var ret []models.Event
	err := r.do(func(s *store) error {
		ret = s.sorted(func(*models.Event) bool { return true })
		return nil
	})
	return ret, err
}

// Delete marks the event with the given ID as deleted
func (r *EventRepo) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return r.do(func(s *store) error {
		ev, ok := s.events[id]
		if !ok {
			return repos.ErrEntityNotExisting
		}
		if ev.IsDeleted {
			return nil
		}
		now := time.Now().UTC()
		ev.IsDeleted = true
		ev.DeletedAt = &now
		ev.ModifiedAt = now
		s.events[id] = ev
		return nil
	})
}
