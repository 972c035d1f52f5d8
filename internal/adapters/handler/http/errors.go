package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/dood/doodle"
	"github.com/vncsmyrnk/dood/internal/core/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := mapError(err)
	writeJSON(w, status, errorBody{Error: msg})
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrInitiatorRequired),
		errors.Is(err, domain.ErrInvalidOptionDate),
		errors.Is(err, domain.ErrInvalidPollID),
		errors.Is(err, doodle.ErrInvalidPollType),
		errors.Is(err, doodle.ErrDescriptionOrLocationRequired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPollNotFound):
		return http.StatusNotFound, domain.ErrPollNotFound.Error()
	case errors.Is(err, doodle.ErrAuthentication):
		return http.StatusBadGateway, "upstream authentication failed"
	case errors.Is(err, doodle.ErrMalformedResponse):
		return http.StatusBadGateway, "upstream returned a malformed response"
	}

	if statusErr, ok := doodle.AsStatusError(err); ok {
		if statusErr.IsNotFound() {
			return http.StatusNotFound, domain.ErrPollNotFound.Error()
		}
		return http.StatusBadGateway, "upstream error: " + statusErr.Status
	}

	return http.StatusInternalServerError, domain.ErrInternal.Error()
}
