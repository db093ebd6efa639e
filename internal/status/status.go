package status

import (
	"errors"
	"fmt"
)

var (
	ErrCircuitOpen     = errors.New("gateway: circuit breaker is open")
	ErrTooManyRequests = errors.New("gateway: too many requests while circuit breaker is half open")
	ErrUnexpectedCode  = errors.New("gateway: unexpected status code")
	ErrMalformedPage   = errors.New("parser: malformed page")
	ErrUnknownLocation = errors.New("locations: location not found")
)

// TransportError is a network level failure fetching URL.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a page that could not be turned into records.
type ParseError struct {
	What string // "locations" or "events"
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AggregationError wraps the first venue failure of a location fan-out.
type AggregationError struct {
	Location string
	Venue    string
	Err      error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %q: venue %q: %v", e.Location, e.Venue, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }
