package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaharia-lab/alertmail/internal/service"
)

const (
	errSendFailed = "Failed to send emails"

	// maxRequestBody caps the JSON body of POST /messages.
	maxRequestBody = 1 << 20
)

// handleSendMessages godoc
// @Summary      Send a security alert
// @Description  Sends one security-alert email per address in emails and reports the outcome of every send.
// @Description  A failure for one recipient does not affect the others; results keep the order of emails.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body service.SendRequest true "Recipients, platform name and confirmation link"
// @Success      200 {object} service.SendResult
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /messages [post]
func (s *Server) handleSendMessages(w http.ResponseWriter, r *http.Request) {
	var req service.SendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.logger.Debug("rejecting malformed alert request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, service.MissingFieldsMessage)
		return
	}

	result, err := s.alertSvc.SendAlert(r.Context(), &req)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, service.MissingFieldsMessage)
			return
		}
		s.logger.Error("sending alert failed", slog.String("error", err.Error()))
		writeErrorDetails(w, http.StatusInternalServerError, errSendFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
