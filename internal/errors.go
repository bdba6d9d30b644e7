package internal

import "net/http"

const (
	// ErrCodeUnknown is the error code for unknown errors
	ErrCodeUnknown = "UNKNOWN_ERROR"
	// ErrCodeRepoError is returned when the request to a repo fails with an error
	ErrCodeRepoError = "STORAGE_QUERY_FAILED"
	// ErrCodeIllegalValue is returned when any parameter in the request does not validate for some reason
	ErrCodeIllegalValue = "ILLEGAL_VALUE"
	// ErrCodeEventNotFound is returned when an operation works on an event that does not exist
	ErrCodeEventNotFound = "EVENT_NOT_FOUND"
	// ErrCodeInvalidID is returned when an event ID is required inside a request, but is not in the format the event
	// storage uses
	ErrCodeInvalidID = "INVALID_ID"
	// ErrCodeProviderNotFound is returned when a crawl is requested for a provider that is not enabled
	ErrCodeProviderNotFound = "PROVIDER_NOT_FOUND"
	// ErrCodeCrawlQueued is returned when a crawl is triggered for a provider that already has a triggered crawl
	// waiting
	ErrCodeCrawlQueued = "CRAWL_ALREADY_QUEUED"
)

// HTTPError is an error that contains information about the error message to return to the client
type HTTPError struct {
	message string
	code    string
	status  int
	data    interface{}
}

// MakeError creates a new HTTPError with the given contents
func MakeError(status int, code, message string) *HTTPError {
	return MakeErrorWithData(status, code, message, nil)
}

// MakeErrorWithData creates a new HTTPError with the given contents and an additional data element
func MakeErrorWithData(status int, code, message string, data interface{}) *HTTPError {
	return &HTTPError{message, code, status, data}
}

// Error implements the errorer interface
func (e *HTTPError) Error() string {
	return e.message
}

// Status returns the HTTP status that should be returned
func (e *HTTPError) Status() int {
	return e.status
}

// ErrorCode returns the machine-readable error code
func (e *HTTPError) ErrorCode() string {
	return e.code
}

// Data returns additional data about the error
func (e *HTTPError) Data() interface{} {
	return e.data
}

// storageError wraps a failed repository call
func storageError(message string, err error) *HTTPError {
	return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, message, err)
}
