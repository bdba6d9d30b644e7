package provider

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/extract"
	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/metrics"
	"github.com/derWhity/eventlink/internal/models"
)

const (
	// TicketMasterName is the provider name of the TicketMaster discovery API
	TicketMasterName = "TicketMaster"
	// Number of events requested per page
	ticketMasterPageSize = 200
)

// TicketMaster crawls the page-based TicketMaster discovery API
type TicketMaster struct {
	endpoint  string
	apiKey    string
	maxPages  uint
	requester Requester
	logger    *logrus.Entry
}

// NewTicketMaster creates a new TicketMaster provider
func NewTicketMaster(conf models.ProviderConfig, requester Requester, logger *logrus.Entry) *TicketMaster {
	return &TicketMaster{
		endpoint:  strings.TrimSuffix(conf.Endpoint, "/"),
		apiKey:    conf.APIKey,
		maxPages:  conf.MaxPages,
		requester: requester,
		logger:    logger,
	}
}

// Name returns the provider name
func (p *TicketMaster) Name() string {
	return TicketMasterName
}

// Fetch requests page after page until the last page reported by the API has been read
func (p *TicketMaster) Fetch(ctx context.Context, countryCodes []string) (*Document, error) {
	logger := p.logger.WithField(log.FldCategory, log.CategoryEvent)
	logger.Info("Getting TicketMaster event data")
	records := []interface{}{}
	for page := 0; ; page++ {
		if p.maxPages > 0 && uint(page) >= p.maxPages {
			return nil, errors.Wrapf(ErrPageLimitExceeded, "Fetch: more than %d pages", p.maxPages)
		}
		params := url.Values{}
		params.Set("apikey", p.apiKey)
		if len(countryCodes) > 0 {
			params.Set("countryCode", strings.Join(countryCodes, ","))
		}
		params.Set("size", strconv.Itoa(ticketMasterPageSize))
		params.Set("page", strconv.Itoa(page))
		doc, err := getJSON(ctx, p.requester, p.endpoint+"/events", params)
		if err != nil {
			return nil, errors.Wrapf(err, "Fetch: page %d", page)
		}
		totalPages, okTotal := extract.Int(doc, "page.totalPages")
		number, okNumber := extract.Int(doc, "page.number")
		if !okTotal || !okNumber {
			return nil, errors.Wrapf(ErrMissingPageInfo, "Fetch: page %d", page)
		}
		metrics.ProviderPagesFetchedTotal.WithLabelValues(TicketMasterName).Inc()
		records = append(records, extract.Items(doc, "_embedded.events")...)
		if number >= totalPages-1 {
			logger.WithField(log.FldPage, page).Info("Last TicketMaster page reached")
			break
		}
		logger.WithFields(logrus.Fields{
			log.FldPage:       page,
			log.FldTotalPages: totalPages,
		}).Debug("TicketMaster page fetched")
	}
	logger.WithField(log.FldRecords, len(records)).Info("Finished getting TicketMaster data")
	return &Document{Provider: TicketMasterName, Records: records}, nil
}

// Map converts TicketMaster event records into events
func (p *TicketMaster) Map(doc *Document) ([]models.Event, error) {
	if err := checkDocument(doc, TicketMasterName); err != nil {
		return nil, err
	}
	ret := make([]models.Event, 0, len(doc.Records))
	for _, rec := range doc.Records {
		ret = append(ret, mapTicketMasterEvent(rec))
	}
	return ret, nil
}

func mapTicketMasterEvent(rec interface{}) models.Event {
	ev := models.Event{
		ProviderEventID: extract.String(rec, "id"),
		ProviderName:    TicketMasterName,
		Name:            extract.String(rec, "name"),
		Type:            extract.String(rec, "type"),
		URL:             extract.String(rec, "url"),
		Locale:          extract.String(rec, "locale"),
		IsActive:        models.Bool(true),
		Sales: models.Sales{
			StartDateTime: timeAt(rec, "sales.public.startDateTime"),
			StartTBD:      boolAt(rec, "sales.public.startTBD"),
			EndDateTime:   timeAt(rec, "sales.public.endDateTime"),
		},
		Dates: models.Dates{
			LocalStartDate:   extract.String(rec, "dates.start.localDate"),
			Timezone:         extract.String(rec, "dates.timezone"),
			StatusCode:       extract.String(rec, "dates.status.code"),
			SpanMultipleDays: boolAt(rec, "dates.spanMultipleDays"),
		},
		Promoter: models.Promoter{
			ID:   extract.String(rec, "promoter.id"),
			Name: extract.String(rec, "promoter.name"),
		},
	}

	classifications := extract.Items(rec, "classifications")
	ev.Classifications = make([]models.Classification, 0, len(classifications))
	for _, c := range classifications {
		ev.Classifications = append(ev.Classifications, models.Classification{
			Primary:  boolAt(c, "primary"),
			Family:   boolAt(c, "family"),
			Segment:  taxonAt(c, "segment"),
			Genre:    taxonAt(c, "genre"),
			SubGenre: taxonAt(c, "subGenre"),
		})
	}

	priceRanges := extract.Items(rec, "priceRanges")
	ev.PriceRanges = make([]models.PriceRange, 0, len(priceRanges))
	for _, pr := range priceRanges {
		ev.PriceRanges = append(ev.PriceRanges, models.PriceRange{
			Type:     extract.String(pr, "type"),
			Currency: extract.String(pr, "currency"),
			Min:      floatAt(pr, "min"),
			Max:      floatAt(pr, "max"),
		})
	}

	venues := extract.Items(rec, "_embedded.venues")
	ev.Venues = make([]models.Venue, 0, len(venues))
	for _, v := range venues {
		ev.Venues = append(ev.Venues, models.Venue{
			ID:       extract.String(v, "id"),
			Name:     extract.String(v, "name"),
			Type:     extract.String(v, "type"),
			URL:      extract.String(v, "url"),
			Locale:   extract.String(v, "locale"),
			Timezone: extract.String(v, "timezone"),
			City:     models.City{Name: extract.String(v, "city.name")},
			Country: models.Country{
				Name: extract.String(v, "country.name"),
				Code: extract.String(v, "country.countryCode"),
			},
			Address: models.Address{Line: extract.String(v, "address.line1")},
		})
	}

	attractions := extract.Items(rec, "_embedded.attractions")
	ev.Attractions = make([]models.Attraction, 0, len(attractions))
	for _, a := range attractions {
		ev.Attractions = append(ev.Attractions, models.Attraction{
			ID:            extract.String(a, "id"),
			Name:          extract.String(a, "name"),
			Type:          extract.String(a, "type"),
			Locale:        extract.String(a, "locale"),
			ExternalLinks: externalLinksAt(a, "externalLinks"),
		})
	}

	images := extract.Items(rec, "images")
	ev.Images = make([]models.Image, 0, len(images))
	for _, img := range images {
		ev.Images = append(ev.Images, models.Image{
			URL:    extract.String(img, "url"),
			Ratio:  extract.String(img, "ratio"),
			Width:  intAt(img, "width"),
			Height: intAt(img, "height"),
		})
	}
	return ev
}
