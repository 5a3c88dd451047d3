package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/facevote/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrServer       = errors.New("server error")
	// ErrNetwork marks any failed call as seen by the workflow.
	ErrNetwork = errors.New("network error")
)

// StatusError is returned for a non-2xx response. Message is the error text
// taken from the response body, if any.
type StatusError struct {
	Status  int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Err, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }

// statusError maps an HTTP status to a sentinel wrapped in a StatusError.
func statusError(status int, message string) error {
	var err error
	switch status {
	case http.StatusBadRequest:
		err = ErrBadRequest
	case http.StatusUnauthorized:
		err = ErrUnauthorized
	case http.StatusForbidden:
		err = common.ErrorIneligible
	case http.StatusNotFound:
		err = common.ErrorNotFound
	case http.StatusConflict:
		err = common.ErrorAlreadyVoted
	case http.StatusTooManyRequests:
		err = common.ErrRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		err = ErrUnavailable
	default:
		err = ErrServer
	}
	return &StatusError{Status: status, Message: message, Err: err}
}
