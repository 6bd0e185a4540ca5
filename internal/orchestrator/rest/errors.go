package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/maestrohq/maestroctl/internal/model"
)

// APIError is a non 2xx orchestrator response.
type APIError struct {
	StatusCode int
	// Detail is the error detail sent by the orchestrator, if any.
	Detail string
	Body   []byte
}

func newAPIError(code int, body []byte) *APIError {
	detail := ""
	if gjson.ValidBytes(body) {
		d := gjson.GetBytes(body, "detail")
		switch {
		case d.Type == gjson.String:
			detail = d.Str
		case d.IsObject() && d.Get("error").Exists():
			detail = d.Get("error").String()
		case d.Exists():
			detail = d.Raw
		}
	}

	return &APIError{StatusCode: code, Detail: detail, Body: body}
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("orchestrator returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("orchestrator returned %d: %s", e.StatusCode, e.Detail)
}

// Unwrap maps the HTTP status to the domain errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusConflict:
		return model.ErrAlreadyExists
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return model.ErrNotValid
	}

	return nil
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
