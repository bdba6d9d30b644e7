package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/eventlink/internal/ctxhelper"
	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/metrics"
	"github.com/derWhity/eventlink/internal/repos"
)

const (
	apiBasePath = "/api"
)

// Defines an error that defines the HTTP status that should be returned
type httpStatuser interface {
	Status() int
}

// Defines an error that returns a machine-readable error code
type errorCoder interface {
	ErrorCode() string
}

// Defines an error that contains a data field with additional information
type dataBearer interface {
	Data() interface{}
}

type errorResponse struct {
	basicResponse
	// The error code
	Error   string      `json:"error"`
	Message string      `json:"errorMessage"`
	Details interface{} `json:"errorDetails,omitempty"`
}

// MakeHTTPHandler creates the main HTTP handler for the EventLink operator API
func MakeHTTPHandler(
	cs CrawlService,
	es EventService,
	ls LogService,
	logger *logrus.Entry,
) http.Handler {
	r := mux.NewRouter()

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerBefore(makeContextInjector(logger)),
	}

	// -- Crawl service --------------------------------
	{
		crawlEndpoints := MakeCrawlEndpoints(cs)

		// List
		r.Methods(http.MethodGet).Path(apiBasePath + "/crawls").Handler(httptransport.NewServer(
			crawlEndpoints.List,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// Get
		r.Methods(http.MethodGet).Path(apiBasePath + "/crawls/{provider}").Handler(httptransport.NewServer(
			crawlEndpoints.Get,
			decodeProviderFromPath,
			encodeJSONResponse,
			options...,
		))

		// Start
		r.Methods(http.MethodPost).Path(apiBasePath + "/crawls/{provider}").Handler(httptransport.NewServer(
			crawlEndpoints.Start,
			decodeProviderFromPath,
			encodeAcceptedResponse,
			options...,
		))
	}

	// -- Event service --------------------------------
	{
		evEp := MakeEventEndpoints(es)

		// Find
		r.Methods(http.MethodGet).Path(apiBasePath + "/events").Handler(httptransport.NewServer(
			evEp.List,
			decodeSearchRequest,
			encodeJSONResponse,
			options...,
		))

		// Get
		r.Methods(http.MethodGet).Path(apiBasePath + "/events/{id}").Handler(httptransport.NewServer(
			evEp.Get,
			decodeEventIDFromPath,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Log service ----------------------------------
	{
		logEp := MakeLogEndpoints(ls)

		r.Methods(http.MethodGet).Path(apiBasePath + "/logs").Handler(httptransport.NewServer(
			logEp.Recent,
			decodeLogQuery,
			encodeJSONResponse,
			options...,
		))
	}

	// Simple alive answer for checking if HTTP can be reached
	r.Methods(http.MethodGet).Path("/alive").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		data := map[string]bool{"ok": true}
		json.NewEncoder(w).Encode(data)
	})

	r.Methods(http.MethodGet).Path("/metrics").Handler(metrics.Handler())

	return r
}

// decodeNilRequest just does nothing with the request. It is used for endpoints that don't need anything to be passed
func decodeNilRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	return nil, nil
}

// decodeProviderFromPath reads the provider name from the request path
func decodeProviderFromPath(_ context.Context, r *http.Request) (interface{}, error) {
	name := strings.TrimSpace(mux.Vars(r)["provider"])
	if name == "" {
		return nil, MakeError(http.StatusBadRequest, ErrCodeIllegalValue, "Missing provider name")
	}
	return name, nil
}

// decodeEventIDFromPath reads the event ID from the request path
func decodeEventIDFromPath(_ context.Context, r *http.Request) (interface{}, error) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		return nil, MakeError(http.StatusBadRequest, ErrCodeInvalidID, "Missing event ID")
	}
	return id, nil
}

// getUintFromQuery reads an unsigned integer from the query. Missing values return the fallback
func getUintFromQuery(r *http.Request, varname string, fallback uint) (uint, error) {
	str := r.URL.Query().Get(varname)
	if str == "" {
		return fallback, nil
	}
	i, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeIllegalValue,
			"Value is no unsigned integer",
			map[string]string{"field": varname},
		)
	}
	return uint(i), nil
}

// decodePaginationRequest reads the pagination information from the request's query variables
func decodePaginationRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	pag := Pagination{}
	if pag.Offset, err = getUintFromQuery(r, "offset", 0); err != nil {
		return nil, err
	}
	if pag.Limit, err = getUintFromQuery(r, "limit", repos.DefaultLimit); err != nil {
		return nil, err
	}
	return pag, nil
}

// decodeSearchRequest decodes the parameters of a search by checking the GET variables "search", "limit" and "offset"
func decodeSearchRequest(ctx context.Context, r *http.Request) (request interface{}, err error) {
	pag, err := decodePaginationRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	search := Search{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Pagination: pag.(Pagination),
	}
	return search, nil
}

// decodeLogQuery decodes the GET variables "category" and "limit"
func decodeLogQuery(_ context.Context, r *http.Request) (interface{}, error) {
	limit, err := getUintFromQuery(r, "limit", repos.DefaultLimit)
	if err != nil {
		return nil, err
	}
	return LogQuery{
		Category: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category"))),
		Limit:    limit,
	}, nil
}

// Encodes a typical JSON response
func encodeJSONResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

// Encodes the response of a request that has been accepted for later processing
func encodeAcceptedResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(response)
}

// Builds an error response based on the incoming error
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		panic("encodeError with nil error")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if st, ok := err.(httpStatuser); ok {
		w.WriteHeader(st.Status())
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	ret := errorResponse{
		basicResponse: basicResponse{false, nil},
		Message:       err.Error(),
		Error:         ErrCodeUnknown,
	}
	if cd, ok := err.(errorCoder); ok {
		ret.Error = cd.ErrorCode()
	}
	if db, ok := err.(dataBearer); ok {
		if data := db.Data(); data != nil {
			if err, ok := data.(error); ok {
				ret.Details = err.Error()
			} else {
				ret.Details = data
			}
		}
	}
	json.NewEncoder(w).Encode(&ret)
}

// makeContextInjector puts the HTTP logger - enriched with the caller's address - into the request context
func makeContextInjector(logger *logrus.Entry) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		return ctxhelper.WithLogger(ctx, logger.WithFields(logrus.Fields{
			log.FldIP:   r.RemoteAddr,
			log.FldPath: r.URL.Path,
		}))
	}
}
