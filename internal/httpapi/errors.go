package httpapi

import (
	"errors"
	"net/http"

	"schedule-backend/internal/locator"
	"schedule-backend/internal/normalizer"
	"schedule-backend/internal/retrieval"
	"schedule-backend/internal/schedule"
)

const (
	kindNotFound   = "not_found"
	kindParse      = "parse"
	kindRetrieval  = "retrieval"
	kindBadRequest = "bad_request"
	kindTooLarge   = "too_large"
	kindInternal   = "internal"
)

// errBadRequest marks errors caused by the request itself.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

func classify(err error) (status int, kind string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, kindTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, schedule.ErrInvalidUrl),
		errors.Is(err, schedule.ErrEmptyDocument):
		return http.StatusBadRequest, kindBadRequest
	case errors.Is(err, schedule.ErrNotFound),
		errors.Is(err, schedule.ErrNoSource):
		return http.StatusNotFound, kindNotFound
	case errors.Is(err, normalizer.ErrParse):
		return http.StatusUnprocessableEntity, kindParse
	case errors.Is(err, retrieval.ErrExhausted),
		errors.Is(err, locator.ErrNoDocumentLink):
		return http.StatusBadGateway, kindRetrieval
	}
	return http.StatusInternalServerError, kindInternal
}
