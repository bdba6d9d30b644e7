package internal

import (
	"fmt"

	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"
)

// CrawlEndpoints is a collection of endpoints to the crawl service
type CrawlEndpoints struct {
	List  endpoint.Endpoint
	Get   endpoint.Endpoint
	Start endpoint.Endpoint
}

// EventEndpoints is a collection of endpoints for working with the event service
type EventEndpoints struct {
	List endpoint.Endpoint
	Get  endpoint.Endpoint
}

// LogEndpoints is a collection of endpoints for reading the persisted log
type LogEndpoints struct {
	Recent endpoint.Endpoint
}

// The base for all responses which always contains an "ok" property to show if the call was successful and a
// data element containing the result of the request
type basicResponse struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data,omitempty"`
}

type pagingResponse struct {
	Rows uint        `json:"rows"`
	List interface{} `json:"list"`
}

// -- Crawls -----------------------------------------------------------------------------------------------------------

// MakeCrawlEndpoints creates the endpoints needed to use the crawl service
func MakeCrawlEndpoints(s CrawlService) CrawlEndpoints {
	return CrawlEndpoints{
		List:  LogCalls("crawls.list")(MakeListCrawlsEndpoint(s)),
		Get:   LogCalls("crawls.get")(MakeGetCrawlEndpoint(s)),
		Start: LogCalls("crawls.start")(MakeStartCrawlEndpoint(s)),
	}
}

// MakeListCrawlsEndpoint returns an endpoint calling the List method of the CrawlService
func MakeListCrawlsEndpoint(s CrawlService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		list, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, list}, nil
	}
}

// MakeGetCrawlEndpoint returns an endpoint calling the Get method of the CrawlService
func MakeGetCrawlEndpoint(s CrawlService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		name, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal provider parameter")
		}
		c, err := s.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, c}, nil
	}
}

// MakeStartCrawlEndpoint returns an endpoint calling the Start method of the CrawlService
func MakeStartCrawlEndpoint(s CrawlService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		name, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal provider parameter")
		}
		if err := s.Start(ctx, name); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

// -- Events -----------------------------------------------------------------------------------------------------------

// MakeEventEndpoints creates the endpoints needed for using the event service
func MakeEventEndpoints(s EventService) EventEndpoints {
	return EventEndpoints{
		List: LogCalls("events.list")(MakeListEventsEndpoint(s)),
		Get:  LogCalls("events.get")(MakeGetEventEndpoint(s)),
	}
}

// MakeListEventsEndpoint returns an endpoint calling the List method on the provided EventService
func MakeListEventsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		se, ok := request.(Search)
		if !ok {
			return nil, fmt.Errorf("illegal search parameter")
		}
		events, numRows, err := s.List(ctx, &se)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, pagingResponse{numRows, events}}, nil
	}
}

// MakeGetEventEndpoint returns an endpoint calling the Get method on the provided EventService
func MakeGetEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		ev, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

// -- Logs -------------------------------------------------------------------------------------------------------------

// MakeLogEndpoints creates the endpoints needed for using the log service
func MakeLogEndpoints(s LogService) LogEndpoints {
	return LogEndpoints{
		Recent: LogCalls("logs.recent")(MakeRecentLogsEndpoint(s)),
	}
}

// MakeRecentLogsEndpoint returns an endpoint calling the Recent method on the provided LogService
func MakeRecentLogsEndpoint(s LogService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		q, ok := request.(LogQuery)
		if !ok {
			return nil, fmt.Errorf("illegal log query")
		}
		entries, err := s.Recent(ctx, &q)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, entries}, nil
	}
}
