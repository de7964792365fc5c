package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by single-record lookups on a 404.
var ErrNotFound = errors.New("not found")

// ErrPromotionsUnavailable marks an enrichment whose promotion lookup could
// not reach any endpoint. The product is still returned at base price.
var ErrPromotionsUnavailable = errors.New("promotions unavailable")

// StatusError captures non-2xx HTTP responses from the catalog API.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("%s request failed: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}
