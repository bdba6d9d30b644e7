package provider

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/eventlink/internal/extract"
	"github.com/derWhity/eventlink/internal/models"
)

const tmEvent = `{
	"id": "E1",
	"name": "Show",
	"type": "event",
	"url": "https://tm.example.com/e1",
	"locale": "en-us",
	"sales": {"public": {"startDateTime": "2019-10-01T10:00:00Z", "startTBD": false, "endDateTime": "2020-01-01T00:00:00Z"}},
	"dates": {
		"start": {"localDate": "2020-01-01"},
		"timezone": "America/New_York",
		"status": {"code": "onsale"},
		"spanMultipleDays": false
	},
	"classifications": [{
		"primary": true,
		"family": false,
		"segment": {"id": "S1", "name": "Music"},
		"genre": {"id": "G1", "name": "Rock"},
		"subGenre": {"id": "SG1", "name": "Pop"}
	}],
	"promoter": {"id": "P1", "name": "Live Inc"},
	"priceRanges": [
		{"type": "standard", "currency": "USD", "min": 0, "max": 99.5},
		{"type": "vip", "currency": "USD"}
	],
	"_embedded": {
		"venues": [{
			"id": "V1",
			"name": "Hall",
			"type": "venue",
			"url": "https://tm.example.com/v1",
			"locale": "en-us",
			"timezone": "America/New_York",
			"city": {"name": "New York"},
			"country": {"name": "United States Of America", "countryCode": "US"},
			"address": {"line1": "1 Main St"}
		}],
		"attractions": [{
			"id": "A1",
			"name": "Band",
			"type": "attraction",
			"locale": "en-us",
			"externalLinks": {
				"youtube": [{"url": "https://youtube.com/band"}],
				"homepage": [{"url": "https://band.example.com"}, {"url": "https://band.example.org"}],
				"twitter": []
			}
		}]
	},
	"images": [{"url": "https://img.example.com/a.jpg", "ratio": "16_9", "width": 640, "height": 360}]
}`

func decodeRecord(t *testing.T, data string) interface{} {
	rec, err := extract.Decode([]byte(data))
	require.NoError(t, err)
	return rec
}

func TestTicketMasterMap(t *testing.T) {
	p := newTM(nil, 0)
	events, err := p.Map(&Document{Provider: TicketMasterName, Records: []interface{}{decodeRecord(t, tmEvent)}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]

	assert.Equal(t, "E1", ev.ProviderEventID)
	assert.Equal(t, TicketMasterName, ev.ProviderName)
	assert.Equal(t, "Show", ev.Name)
	assert.Equal(t, "event", ev.Type)
	assert.Equal(t, "en-us", ev.Locale)
	assert.Equal(t, "", ev.Description)
	assert.Equal(t, models.Bool(true), ev.IsActive)
	assert.Empty(t, ev.ID)

	require.NotNil(t, ev.Sales.EndDateTime)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), ev.Sales.EndDateTime.UTC())
	assert.Equal(t, models.Bool(false), ev.Sales.StartTBD)
	assert.Equal(t, "2020-01-01", ev.Dates.LocalStartDate)
	assert.Equal(t, "America/New_York", ev.Dates.Timezone)
	assert.Equal(t, "onsale", ev.Dates.StatusCode)
	assert.Equal(t, models.Bool(false), ev.Dates.SpanMultipleDays)

	require.Len(t, ev.Classifications, 1)
	assert.Equal(t, models.Classification{
		Primary:  models.Bool(true),
		Family:   models.Bool(false),
		Segment:  models.Taxon{ID: "S1", Name: "Music"},
		Genre:    models.Taxon{ID: "G1", Name: "Rock"},
		SubGenre: models.Taxon{ID: "SG1", Name: "Pop"},
	}, ev.Classifications[0])
	assert.Equal(t, models.Promoter{ID: "P1", Name: "Live Inc"}, ev.Promoter)

	require.Len(t, ev.PriceRanges, 2)
	require.NotNil(t, ev.PriceRanges[0].Min)
	assert.Equal(t, 0.0, *ev.PriceRanges[0].Min)
	assert.Equal(t, 99.5, *ev.PriceRanges[0].Max)
	assert.Nil(t, ev.PriceRanges[1].Min)
	assert.Nil(t, ev.PriceRanges[1].Max)

	require.Len(t, ev.Venues, 1)
	assert.Equal(t, "New York", ev.Venues[0].City.Name)
	assert.Equal(t, models.Country{Name: "United States Of America", Code: "US"}, ev.Venues[0].Country)
	assert.Equal(t, "1 Main St", ev.Venues[0].Address.Line)

	require.Len(t, ev.Attractions, 1)
	links := ev.Attractions[0].ExternalLinks
	assert.Len(t, links, 2)
	assert.Equal(t, []models.Link{{URL: "https://youtube.com/band"}}, links[models.PlatformYoutube])
	assert.Len(t, links[models.PlatformHomepage], 2)
	_, hasTwitter := links[models.PlatformTwitter]
	assert.False(t, hasTwitter)

	require.Len(t, ev.Images, 1)
	assert.Equal(t, "16_9", ev.Images[0].Ratio)
	assert.Equal(t, 640, *ev.Images[0].Width)
	assert.Equal(t, 360, *ev.Images[0].Height)
}

func TestTicketMasterMapSparseRecord(t *testing.T) {
	events, err := newTM(nil, 0).Map(&Document{
		Provider: TicketMasterName,
		Records:  []interface{}{decodeRecord(t, `{"id": "E2"}`), decodeRecord(t, `{"id": "E2"}`)},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	ev := events[0]
	assert.Equal(t, "E2", ev.ProviderEventID)
	assert.Equal(t, "", ev.Name)
	assert.Nil(t, ev.Sales.StartDateTime)
	assert.Nil(t, ev.Sales.EndDateTime)
	assert.Nil(t, ev.Dates.SpanMultipleDays)
	assert.NotNil(t, ev.Classifications)
	assert.Empty(t, ev.Classifications)
	assert.Empty(t, ev.Venues)
	assert.Empty(t, ev.Images)
}

func TestMapRejectsForeignDocuments(t *testing.T) {
	_, err := newTM(nil, 0).Map(nil)
	assert.Equal(t, ErrNilDocument, err)
	_, err = newTM(nil, 0).Map(&Document{Provider: EventfulName})
	assert.Equal(t, ErrProviderMismatch, errors.Cause(err))
	_, err = newEventful(nil).Map(&Document{Provider: TicketMasterName})
	assert.Equal(t, ErrProviderMismatch, errors.Cause(err))

	events, err := newEventful(nil).Map(&Document{Provider: EventfulName})
	require.NoError(t, err)
	assert.Empty(t, events)
}

const efEvent = `{
	"id": "EF1",
	"title": "Festival",
	"url": "http://ef.example.com/ef1",
	"description": "Three days of music",
	"start_time": "2020-07-01 18:00:00",
	"stop_time": "2020-07-03 23:00:00",
	"olson_path": "Europe/Berlin",
	"recur_string": "on various days",
	"owner": "promoter_1",
	"venue_id": "V9",
	"venue_name": "Park",
	"venue_url": "http://ef.example.com/v9",
	"venue_address": "Parkweg 1",
	"tz_city": "Berlin",
	"country_name": "Germany",
	"country_abbr": "DEU",
	"performers": {"performer": {"id": "PF1", "short_bio": "Electronic"}},
	"image": {
		"small": {"url": "//img.example.com/a.jpg", "width": "48", "height": "48"},
		"medium": {"url": "https://img.example.com/b.jpg", "width": "128", "height": "128"}
	}
}`

func TestEventfulMap(t *testing.T) {
	events, err := newEventful(nil).Map(&Document{Provider: EventfulName, Records: []interface{}{decodeRecord(t, efEvent)}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]

	assert.Equal(t, "EF1", ev.ProviderEventID)
	assert.Equal(t, EventfulName, ev.ProviderName)
	assert.Equal(t, "Festival", ev.Name)
	assert.Equal(t, "event", ev.Type)
	assert.Equal(t, "", ev.Locale)
	assert.Equal(t, "Three days of music", ev.Description)
	assert.Equal(t, models.Bool(true), ev.IsActive)

	require.NotNil(t, ev.Sales.StartDateTime)
	assert.Equal(t, time.Date(2020, 7, 1, 18, 0, 0, 0, time.UTC), *ev.Sales.StartDateTime)
	assert.Equal(t, time.Date(2020, 7, 3, 23, 0, 0, 0, time.UTC), *ev.Sales.EndDateTime)
	assert.Equal(t, models.Bool(false), ev.Sales.StartTBD)
	assert.Equal(t, "2020-07-01 18:00:00", ev.Dates.LocalStartDate)
	assert.Equal(t, "Europe/Berlin", ev.Dates.Timezone)
	assert.Equal(t, "onsale", ev.Dates.StatusCode)
	assert.Equal(t, models.Bool(true), ev.Dates.SpanMultipleDays)

	require.Len(t, ev.Classifications, 1)
	assert.Equal(t, models.Classification{
		Primary: models.Bool(true),
		Family:  models.Bool(true),
		Genre:   models.Taxon{ID: "PF1", Name: "Electronic"},
	}, ev.Classifications[0])
	assert.Equal(t, models.Promoter{Name: "promoter_1"}, ev.Promoter)
	assert.NotNil(t, ev.PriceRanges)
	assert.Empty(t, ev.PriceRanges)
	assert.NotNil(t, ev.Attractions)
	assert.Empty(t, ev.Attractions)

	require.Len(t, ev.Venues, 1)
	assert.Equal(t, models.Venue{
		ID:      "V9",
		Name:    "Park",
		Type:    "venue",
		URL:     "http://ef.example.com/v9",
		Locale:  "Berlin",
		City:    models.City{Name: "Berlin"},
		Country: models.Country{Name: "Germany", Code: "DEU"},
		Address: models.Address{Line: "Parkweg 1"},
	}, ev.Venues[0])

	require.Len(t, ev.Images, 2)
	assert.Equal(t, "http://img.example.com/a.jpg", ev.Images[0].URL)
	assert.Equal(t, 48, *ev.Images[0].Width)
	assert.Equal(t, "", ev.Images[0].Ratio)
	assert.Equal(t, "https://img.example.com/b.jpg", ev.Images[1].URL)
	assert.Equal(t, 128, *ev.Images[1].Height)
}

func TestEventfulMapSparseRecord(t *testing.T) {
	events, err := newEventful(nil).Map(&Document{
		Provider: EventfulName,
		Records: []interface{}{decodeRecord(t, `{"id": "EF2", "title": "Talk", "recur_string": null,
			"performers": [{"id": "PF1"}, {"id": "PF2"}]}`)},
	})
	require.NoError(t, err)
	ev := events[0]
	assert.Equal(t, models.Bool(false), ev.Dates.SpanMultipleDays)
	assert.Len(t, ev.Classifications, 2)
	require.Len(t, ev.Images, 2)
	assert.Equal(t, "", ev.Images[0].URL)
	assert.Nil(t, ev.Images[0].Width)
	require.Len(t, ev.Venues, 1)
	assert.Equal(t, "venue", ev.Venues[0].Type)
}
