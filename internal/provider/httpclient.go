package provider

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/extract"
	"github.com/derWhity/eventlink/internal/log"
)

// Requester performs GET requests against a provider API
type Requester interface {
	// Get requests the given endpoint with the query parameters provided and returns the status code and the body
	Get(ctx context.Context, endpoint string, params url.Values) (int, []byte, error)
}

// HTTPRequester is the Requester talking HTTP
type HTTPRequester struct {
	client *http.Client
	logger *logrus.Entry
}

// NewHTTPRequester creates a requester whose requests time out after the given duration
func NewHTTPRequester(timeout time.Duration, logger *logrus.Entry) *HTTPRequester {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &HTTPRequester{
		client: &http.Client{Timeout: timeout, Transport: tr},
		logger: logger,
	}
}

// Get requests the given endpoint with the query parameters provided and returns the status code and the body
func (r *HTTPRequester) Get(ctx context.Context, endpoint string, params url.Values) (int, []byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return 0, nil, errors.Wrap(err, "Get: invalid endpoint")
	}
	u.RawQuery = params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, errors.Wrap(err, "Get: failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	r.logger.WithField(log.FldPath, u.Path).Debug("Requesting provider data")
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "Get: request failed")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "Get: failed to read response body")
	}
	return resp.StatusCode, body, nil
}

// getJSON requests a JSON document and applies the checks every provider response has to pass
func getJSON(ctx context.Context, r Requester, endpoint string, params url.Values) (interface{}, error) {
	status, body, err := r.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, errors.Wrapf(ErrUnexpectedStatus, "got %d", status)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyResponse
	}
	doc, err := extract.Decode(body)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "%v", err)
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return nil, errors.Wrap(ErrMalformedResponse, "expected a JSON object")
	}
	return doc, nil
}
