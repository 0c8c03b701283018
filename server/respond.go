package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/skillsync/skillsync-server/internal/apperrors"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps the error taxonomy onto HTTP status codes. Unclassified
// errors become a 500 with a generic body so internals never leak.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case apperrors.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case apperrors.IsUnauthorized(err):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case apperrors.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case apperrors.IsBadRequest(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		logger.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.BadRequestf("invalid request body: %v", err)
	}
	return nil
}
