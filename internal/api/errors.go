package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/soaringjerry/stackit/internal/middleware"
	"github.com/soaringjerry/stackit/internal/services"
	"github.com/soaringjerry/stackit/internal/utils"
)

var statusByCode = map[services.ErrorCode]int{
	services.ErrorInvalid:      http.StatusBadRequest,
	services.ErrorUnauthorized: http.StatusUnauthorized,
	services.ErrorForbidden:    http.StatusForbidden,
	services.ErrorNotFound:     http.StatusNotFound,
	services.ErrorConflict:     http.StatusConflict,
}

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes with a localized message.
// Anything else is a 500 and is logged.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	if se, ok := services.AsServiceError(err); ok {
		status, known := statusByCode[se.Code]
		if !known {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorBody{
			Error:  utils.T(locale, "error."+string(se.Code)),
			Code:   string(se.Code),
			Detail: se.Message,
		})
		return
	}
	rt.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error: utils.T(locale, "error.internal"),
		Code:  "internal",
	})
}
