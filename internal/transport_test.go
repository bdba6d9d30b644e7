package internal

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/eventlink/internal/crawler"
	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/provider"
	eventrepo "github.com/derWhity/eventlink/internal/repos/event/inmem"
	logrepo "github.com/derWhity/eventlink/internal/repos/logentry/inmem"
	"github.com/derWhity/eventlink/internal/repos/repotest"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeScheduler knows a single provider and allows one queued trigger
type fakeScheduler struct {
	crawl crawler.Crawl
}

func (s *fakeScheduler) StatusAll() []crawler.Crawl {
	return []crawler.Crawl{s.crawl}
}

func (s *fakeScheduler) Status(name string) (*crawler.Crawl, error) {
	if name != s.crawl.Provider {
		return nil, errors.Wrapf(provider.ErrUnknownProvider, "'%s'", name)
	}
	c := s.crawl
	return &c, nil
}

func (s *fakeScheduler) Trigger(name string) error {
	if name != s.crawl.Provider {
		return errors.Wrapf(provider.ErrUnknownProvider, "'%s'", name)
	}
	if s.crawl.Queued {
		return crawler.ErrAlreadyQueued
	}
	s.crawl.Queued = true
	return nil
}

type apiResponse struct {
	OK      bool            `json:"ok"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"errorMessage"`
}

type fixture struct {
	server *httptest.Server
	events *eventrepo.EventRepo
	logs   *logrepo.LogRepo
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		events: eventrepo.New(),
		logs:   logrepo.New(10),
	}
	logger := testLogger()
	h := MakeHTTPHandler(
		NewCrawlService(&fakeScheduler{crawl: crawler.Crawl{Provider: "TicketMaster", Interval: "1h0m0s"}}, logger),
		NewEventService(f.events, logger),
		NewLogService(f.logs, logger),
		logger,
	)
	f.server = httptest.NewServer(h)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) call(t *testing.T, method, path string) (int, apiResponse) {
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var body apiResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body
}

func TestCrawlAPI(t *testing.T) {
	f := newFixture(t)

	status, body := f.call(t, http.MethodGet, "/api/crawls")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.OK)
	var list []crawler.Crawl
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "TicketMaster", list[0].Provider)
	assert.Contains(t, string(body.Data), `"status":"idle"`)

	status, body = f.call(t, http.MethodGet, "/api/crawls/Songkick")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, body.OK)
	assert.Equal(t, ErrCodeProviderNotFound, body.Error)

	status, body = f.call(t, http.MethodPost, "/api/crawls/TicketMaster")
	assert.Equal(t, http.StatusAccepted, status)
	assert.True(t, body.OK)

	status, body = f.call(t, http.MethodPost, "/api/crawls/TicketMaster")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, ErrCodeCrawlQueued, body.Error)

	status, body = f.call(t, http.MethodGet, "/api/crawls/TicketMaster")
	assert.Equal(t, http.StatusOK, status)
	var c crawler.Crawl
	require.NoError(t, json.Unmarshal(body.Data, &c))
	assert.True(t, c.Queued)
}

func TestEventAPI(t *testing.T) {
	f := newFixture(t)
	rock := repotest.NewEvent("TicketMaster", "E1", "Rock am Ring")
	require.NoError(t, f.events.Create(rock))
	require.NoError(t, f.events.Create(repotest.NewEvent("Eventful", "E2", "Jazz Night")))

	status, body := f.call(t, http.MethodGet, "/api/events?search=rock")
	assert.Equal(t, http.StatusOK, status)
	var page struct {
		Rows uint           `json:"rows"`
		List []models.Event `json:"list"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.Equal(t, uint(1), page.Rows)
	require.Len(t, page.List, 1)
	assert.Equal(t, rock.ID, page.List[0].ID)

	status, body = f.call(t, http.MethodGet, "/api/events?limit=1")
	assert.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.Equal(t, uint(2), page.Rows)
	assert.Len(t, page.List, 1)

	status, body = f.call(t, http.MethodGet, "/api/events/"+rock.ID)
	assert.Equal(t, http.StatusOK, status)
	var ev models.Event
	require.NoError(t, json.Unmarshal(body.Data, &ev))
	assert.Equal(t, "Rock am Ring", ev.Name)

	for name, tc := range map[string]struct {
		path   string
		status int
		code   string
	}{
		"unknown id":   {"/api/events/" + uuid.New().String(), http.StatusNotFound, ErrCodeEventNotFound},
		"malformed id": {"/api/events/not-a-uuid", http.StatusBadRequest, ErrCodeInvalidID},
		"bad limit":    {"/api/events?limit=ten", http.StatusBadRequest, ErrCodeIllegalValue},
		"bad offset":   {"/api/events?offset=-1", http.StatusBadRequest, ErrCodeIllegalValue},
	} {
		t.Run(name, func(t *testing.T) {
			status, body := f.call(t, http.MethodGet, tc.path)
			assert.Equal(t, tc.status, status)
			assert.False(t, body.OK)
			assert.Equal(t, tc.code, body.Error)
		})
	}
}

func TestLogAPI(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	require.NoError(t, f.logs.Create(&models.LogEntry{Category: log.CategorySystem, Message: "Starting", CreatedAt: now}))
	require.NoError(t, f.logs.Create(&models.LogEntry{
		Category:  log.CategoryStatistics,
		Message:   "TicketMaster data population statistics: Created (1), Updated (0), Error (0).",
		CreatedAt: now.Add(time.Second),
	}))

	status, body := f.call(t, http.MethodGet, "/api/logs?category=Statistics")
	assert.Equal(t, http.StatusOK, status)
	var entries []models.LogEntry
	require.NoError(t, json.Unmarshal(body.Data, &entries))
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Message, "TicketMaster data population statistics"))

	status, body = f.call(t, http.MethodGet, "/api/logs")
	assert.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Data, &entries))
	assert.Len(t, entries, 2)

	status, body = f.call(t, http.MethodGet, "/api/logs?category=audit")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ErrCodeIllegalValue, body.Error)
}

func TestAliveAndMetrics(t *testing.T) {
	f := newFixture(t)

	status, body := f.call(t, http.MethodGet, "/alive")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.OK)

	res, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "eventlink_")
}
