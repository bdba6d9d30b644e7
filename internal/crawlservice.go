package internal

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/eventlink/internal/crawler"
	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/provider"
)

// CrawlService gives access to the crawl state of the providers and allows to start crawls manually
type CrawlService interface {
	List(ctx context.Context) ([]crawler.Crawl, error)
	Get(ctx context.Context, providerName string) (*crawler.Crawl, error)
	Start(ctx context.Context, providerName string) error
}

// CrawlScheduler is the part of the crawl scheduler the crawl service works with
type CrawlScheduler interface {
	StatusAll() []crawler.Crawl
	Status(name string) (*crawler.Crawl, error)
	Trigger(name string) error
}

// -- CrawlService implementation --------------------------------------------------------------------------------------

type crawlService struct {
	scheduler CrawlScheduler
	logger    *logrus.Entry
}

// NewCrawlService creates a new crawl service instance working on the given scheduler
func NewCrawlService(scheduler CrawlScheduler, logger *logrus.Entry) CrawlService {
	return &crawlService{
		scheduler: scheduler,
		logger:    logger,
	}
}

func providerNotFound(name string) *HTTPError {
	return MakeError(http.StatusNotFound, ErrCodeProviderNotFound,
		fmt.Sprintf("Provider '%s' does not exist or is not enabled", name),
	)
}

// List returns the crawl state of all enabled providers ordered by provider name
func (s *crawlService) List(ctx context.Context) ([]crawler.Crawl, error) {
	return s.scheduler.StatusAll(), nil
}

// Get returns the crawl state of a single provider
func (s *crawlService) Get(ctx context.Context, providerName string) (*crawler.Crawl, error) {
	c, err := s.scheduler.Status(providerName)
	if err != nil {
		if errors.Cause(err) == provider.ErrUnknownProvider {
			return nil, providerNotFound(providerName)
		}
		return nil, err
	}
	return c, nil
}

// Start queues a crawl pass for the given provider
func (s *crawlService) Start(ctx context.Context, providerName string) error {
	err := s.scheduler.Trigger(providerName)
	switch errors.Cause(err) {
	case nil:
		s.logger.WithField(log.FldProvider, providerName).Info("Crawl requested via API")
		return nil
	case provider.ErrUnknownProvider:
		return providerNotFound(providerName)
	case crawler.ErrAlreadyQueued:
		return MakeError(http.StatusConflict, ErrCodeCrawlQueued, "A crawl for this provider is already queued")
	}
	return err
}
