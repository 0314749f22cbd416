package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderdesk/internal/i18n"
	"orderdesk/internal/model"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:          http.StatusBadRequest,
	model.ErrCodeInvalidID:            http.StatusBadRequest,
	model.ErrCodeEmptyCart:            http.StatusBadRequest,
	model.ErrCodeMissingCustomerName:  http.StatusBadRequest,
	model.ErrCodeMissingCustomerEmail: http.StatusBadRequest,
	model.ErrCodeInvalidCustomerEmail: http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:      http.StatusBadRequest,
	model.ErrCodeInvalidStatus:        http.StatusBadRequest,
	model.ErrCodeInvalidProduct:       http.StatusBadRequest,
	model.ErrCodeProductUnavailable:   http.StatusConflict,
	model.ErrCodeProductNotFound:      http.StatusNotFound,
	model.ErrCodeOrderNotFound:        http.StatusNotFound,
	model.ErrCodeInvalidTransition:    http.StatusConflict,
	model.ErrCodePaymentNotCompleted:  http.StatusPaymentRequired,
	model.ErrCodePaymentGateway:       http.StatusBadGateway,
	model.ErrCodeUnauthorised:         http.StatusUnauthorized,
}

var (
	errInvalidJSON = model.NewDomainError(model.ErrCodeInvalidJSON, "Invalid request body")
	errInvalidID   = model.NewDomainError(model.ErrCodeInvalidID, "Invalid identifier")
	errInternal    = model.NewDomainError(model.ErrCodeInternalError, "Internal server error")
)

// responder writes JSON bodies and localised errors.
type responder struct {
	translator *i18n.Translator
	logger     zerolog.Logger
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

// writeError maps err to a status code and writes {"error", "message"} in
// the caller's language. Errors that are not domain errors are logged and
// reported as internal errors.
func (rs responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		domainErr = errInternal
	}

	status, ok := statusByCode[domainErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	event := rs.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = rs.logger.Error()
	}
	event.
		Err(err).
		Str("code", domainErr.Code).
		Int("status", status).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("request failed")

	lang := rs.translator.Match(r.Header.Get("Accept-Language"))
	w.Header().Set("Content-Language", lang.String())
	writeJSON(w, status, model.ErrorResponse{
		Error:   domainErr.Code,
		Message: rs.translator.Error(lang, domainErr),
	})
}
