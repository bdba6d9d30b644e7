package provider

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/extract"
	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/metrics"
	"github.com/derWhity/eventlink/internal/models"
)

const (
	// EventfulName is the provider name of the Eventful search API
	EventfulName = "Eventful"
	// Eventful has no way to request all results - this is large enough to get everything in one request
	eventfulPageSize = "1000000"
)

// The image sizes taken over from Eventful
var eventfulImageSizes = []string{"small", "medium"}

// Eventful crawls the single-shot Eventful search API
type Eventful struct {
	endpoint  string
	apiKey    string
	requester Requester
	logger    *logrus.Entry
}

// NewEventful creates a new Eventful provider
func NewEventful(conf models.ProviderConfig, requester Requester, logger *logrus.Entry) *Eventful {
	return &Eventful{
		endpoint:  strings.TrimSuffix(conf.Endpoint, "/"),
		apiKey:    conf.APIKey,
		requester: requester,
		logger:    logger,
	}
}

// Name returns the provider name
func (p *Eventful) Name() string {
	return EventfulName
}

// Fetch requests all events in one search request
func (p *Eventful) Fetch(ctx context.Context, countryCodes []string) (*Document, error) {
	logger := p.logger.WithField(log.FldCategory, log.CategoryEvent)
	logger.Info("Getting Eventful event data")
	params := url.Values{}
	params.Set("q", "event")
	params.Set("app_key", p.apiKey)
	if len(countryCodes) > 0 {
		params.Set("l", strings.Join(countryCodes, ","))
	}
	params.Set("page_size", eventfulPageSize)
	doc, err := getJSON(ctx, p.requester, p.endpoint+"/search", params)
	if err != nil {
		return nil, errors.Wrap(err, "Fetch")
	}
	if !extract.Has(doc, "events") {
		return nil, errors.Wrap(ErrMalformedResponse, "Fetch: no events element")
	}
	metrics.ProviderPagesFetchedTotal.WithLabelValues(EventfulName).Inc()
	records := extract.Items(doc, "events.event")
	if records == nil {
		records = []interface{}{}
	}
	logger.WithField(log.FldRecords, len(records)).Info("Finished getting Eventful data")
	return &Document{Provider: EventfulName, Records: records}, nil
}

// Map converts Eventful event records into events
func (p *Eventful) Map(doc *Document) ([]models.Event, error) {
	if err := checkDocument(doc, EventfulName); err != nil {
		return nil, err
	}
	ret := make([]models.Event, 0, len(doc.Records))
	for _, rec := range doc.Records {
		ret = append(ret, mapEventfulEvent(rec))
	}
	return ret, nil
}

func mapEventfulEvent(rec interface{}) models.Event {
	ev := models.Event{
		ProviderEventID: extract.String(rec, "id"),
		ProviderName:    EventfulName,
		Name:            extract.String(rec, "title"),
		Type:            "event",
		URL:             extract.String(rec, "url"),
		Description:     extract.String(rec, "description"),
		IsActive:        models.Bool(true),
		Sales: models.Sales{
			StartDateTime: timeAt(rec, "start_time"),
			StartTBD:      models.Bool(false),
			EndDateTime:   timeAt(rec, "stop_time"),
		},
		Dates: models.Dates{
			LocalStartDate:   extract.String(rec, "start_time"),
			Timezone:         extract.String(rec, "olson_path"),
			StatusCode:       "onsale",
			SpanMultipleDays: models.Bool(strings.Contains(extract.String(rec, "recur_string"), "various")),
		},
		Promoter: models.Promoter{
			Name: extract.String(rec, "owner"),
		},
		PriceRanges: []models.PriceRange{},
		Attractions: []models.Attraction{},
		Venues: []models.Venue{{
			ID:     extract.String(rec, "venue_id"),
			Name:   extract.String(rec, "venue_name"),
			Type:   "venue",
			URL:    extract.String(rec, "venue_url"),
			Locale: extract.String(rec, "tz_city"),
			City:   models.City{Name: extract.String(rec, "tz_city")},
			Country: models.Country{
				Name: extract.String(rec, "country_name"),
				Code: extract.String(rec, "country_abbr"),
			},
			Address: models.Address{Line: extract.String(rec, "venue_address")},
		}},
	}

	// Performers come either as a plain list or wrapped into a "performer" element holding one or many entries
	performers := extract.Items(rec, "performers.performer")
	if len(performers) == 0 {
		performers = extract.Items(rec, "performers")
	}
	ev.Classifications = make([]models.Classification, 0, len(performers))
	for _, perf := range performers {
		ev.Classifications = append(ev.Classifications, models.Classification{
			Primary: models.Bool(true),
			Family:  models.Bool(true),
			Genre: models.Taxon{
				ID:   extract.String(perf, "id"),
				Name: extract.String(perf, "short_bio"),
			},
		})
	}

	ev.Images = make([]models.Image, 0, len(eventfulImageSizes))
	for _, size := range eventfulImageSizes {
		ev.Images = append(ev.Images, models.Image{
			URL:    absoluteURL(extract.String(rec, "image."+size+".url")),
			Width:  intAt(rec, "image."+size+".width"),
			Height: intAt(rec, "image."+size+".height"),
		})
	}
	return ev
}
