package mgmt

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/beevik/etree"

	"github.com/sbatom/sbatom-go/pkg/atom"
)

// Management client errors.
var (
	ErrMissingEndpoint = errors.New("endpoint is required")
	ErrConflict        = errors.New("entity already exists")
	ErrUnauthorized    = errors.New("authorization failed")
)

// ResponseError is a non-success answer from the management API. It
// carries the parsed error body when the service sent one. Unwrap maps
// well-known statuses to sentinel errors, so errors.Is with
// atom.ErrEntityNotFound, ErrConflict or ErrUnauthorized works across
// the whole client.
type ResponseError struct {
	// Status is the HTTP status code.
	Status int

	// Code is the error code from the response body, when present.
	Code string

	// Detail is the error description from the response body, or the
	// raw body when it was not the documented error document.
	Detail string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("management request failed: status %d code %q: %s", e.Status, e.Code, e.Detail)
}

func (e *ResponseError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return atom.ErrEntityNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return nil
	}
}

// newResponseError builds a ResponseError from a response body. The
// service documents an Error document with Code and Detail children;
// anything else is kept verbatim as the detail.
func newResponseError(status int, body []byte) *ResponseError {
	respErr := &ResponseError{Status: status}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err == nil {
		if root := doc.Root(); root != nil && root.Tag == "Error" {
			if el := root.SelectElement("Code"); el != nil {
				respErr.Code = strings.TrimSpace(el.Text())
			}
			if el := root.SelectElement("Detail"); el != nil {
				respErr.Detail = strings.TrimSpace(el.Text())
			}
		}
	}
	if respErr.Detail == "" {
		respErr.Detail = strings.TrimSpace(string(body))
	}
	return respErr
}
