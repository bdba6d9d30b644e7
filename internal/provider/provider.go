// Package provider fetches raw event data from the event providers and maps it into canonical events
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
)

var (
	// ErrUnexpectedStatus is returned when a provider answers with a status other than 200
	ErrUnexpectedStatus = fmt.Errorf("unexpected HTTP status")
	// ErrEmptyResponse is returned when a provider answers without a body
	ErrEmptyResponse = fmt.Errorf("empty response body")
	// ErrMalformedResponse is returned when the response body cannot be read as the expected JSON document
	ErrMalformedResponse = fmt.Errorf("malformed response body")
	// ErrMissingPageInfo is returned when a paginated response lacks the page metadata
	ErrMissingPageInfo = fmt.Errorf("response is missing page information")
	// ErrPageLimitExceeded is returned when a provider reports more pages than the configured maximum
	ErrPageLimitExceeded = fmt.Errorf("page limit exceeded")
	// ErrNilDocument is returned when mapping is requested without a document
	ErrNilDocument = fmt.Errorf("no document to map")
	// ErrProviderMismatch is returned when a provider is asked to map a document fetched by another provider
	ErrProviderMismatch = fmt.Errorf("document belongs to another provider")
	// ErrUnknownProvider is returned when a provider name is not known
	ErrUnknownProvider = fmt.Errorf("unknown provider")
	// ErrDuplicateProvider is returned when registering a provider name twice
	ErrDuplicateProvider = fmt.Errorf("provider already registered")
)

// Document is the unified result of a fetch: the raw event records of one provider in the order they were received
type Document struct {
	Provider string
	Records  []interface{}
}

// Provider fetches event data from one event provider and maps it into canonical events
type Provider interface {
	// Name returns the provider name that is stored with every event
	Name() string
	// Fetch retrieves all event records currently offered by the provider. No partial results are returned
	Fetch(ctx context.Context, countryCodes []string) (*Document, error)
	// Map converts the records of a fetched document into events - one event per record, order preserved
	Map(doc *Document) ([]models.Event, error)
}

// NewFromConfig creates the provider with the given name from its configuration
func NewFromConfig(name string, conf models.ProviderConfig, logger *logrus.Entry) (Provider, error) {
	requester := NewHTTPRequester(conf.Timeout(), logger)
	switch name {
	case TicketMasterName:
		return NewTicketMaster(conf, requester, logger), nil
	case EventfulName:
		return NewEventful(conf, requester, logger), nil
	default:
		return nil, errors.Wrapf(ErrUnknownProvider, "'%s'", name)
	}
}

// Registry holds the providers available for crawling by name
type Registry struct {
	mtx       sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// NewRegistryFromConfig creates a registry holding all enabled providers of the given configuration
func NewRegistryFromConfig(conf map[string]models.ProviderConfig, logger *logrus.Entry) (*Registry, error) {
	reg := NewRegistry()
	for name, pc := range conf {
		if !pc.Enabled {
			logger.WithField(log.FldProvider, name).Info("Provider is disabled")
			continue
		}
		p, err := NewFromConfig(name, pc, logger.WithField(log.FldProvider, name))
		if err != nil {
			return nil, err
		}
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.providers[p.Name()]; ok {
		return errors.Wrapf(ErrDuplicateProvider, "'%s'", p.Name())
	}
	r.providers[p.Name()] = p
	return nil
}

// Get returns the provider with the given name
func (r *Registry) Get(name string) (Provider, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProvider, "'%s'", name)
	}
	return p, nil
}

// All returns all registered providers ordered by name
func (r *Registry) All() []Provider {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	ret := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		ret = append(ret, p)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Name() < ret[j].Name()
	})
	return ret
}

func checkDocument(doc *Document, name string) error {
	if doc == nil {
		return ErrNilDocument
	}
	if doc.Provider != name {
		return errors.Wrapf(ErrProviderMismatch, "expected '%s', got '%s'", name, doc.Provider)
	}
	return nil
}
