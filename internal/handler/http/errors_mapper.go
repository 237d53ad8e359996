package http

import (
	"net/http"

	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/service"
	"github.com/MKhiriev/snippet-keeper/internal/utils"
)

var errorStatusMap = map[service.ErrorKind]int{
	service.KindMissingField:          http.StatusBadRequest,
	service.KindInvalidFormat:         http.StatusBadRequest,
	service.KindTokenInvalidOrExpired: http.StatusBadRequest,
	service.KindInvalidCredentials:    http.StatusUnauthorized,
	service.KindUnauthorized:          http.StatusUnauthorized,
	service.KindAccountLocked:         http.StatusLocked,
	service.KindNotFound:              http.StatusNotFound,
	service.KindConflict:              http.StatusConflict,
	service.KindUnexpected:            http.StatusInternalServerError,
}

func statusFromError(err error) int {
	if status, ok := errorStatusMap[service.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeServiceError renders a failed service call as the error envelope and
// counts the outcome of operation.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	log := logger.FromRequest(r)

	kind := service.KindOf(err)
	status := statusFromError(err)
	h.opts.Metrics.RecordAuthOutcome(operation, kind.String())

	if status >= http.StatusInternalServerError {
		log.Err(err).Str("operation", operation).Msg("unexpected error occurred")
	} else {
		log.Info().Str("operation", operation).Str("kind", kind.String()).Int("status", status).Msg("request rejected")
	}

	utils.WriteError(w, service.MessageOf(err), status)
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, operation string, result any, status int) {
	h.opts.Metrics.RecordAuthOutcome(operation, outcomeSuccess)

	if _, err := utils.WriteJSON(w, result, status); err != nil {
		logger.FromRequest(r).Err(err).Str("operation", operation).Msg("error writing response")
	}
}
