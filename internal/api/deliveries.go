package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shaharia-lab/alertmail/internal/service"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

// DeliveryList is the body of GET /deliveries.
type DeliveryList struct {
	Deliveries []storage.DeliveryRecord `json:"deliveries"`
	Count      int                      `json:"count"`
}

// handleListDeliveries godoc
// @Summary      List recent deliveries
// @Description  Returns the newest per-recipient delivery records from the delivery log.
// @Tags         deliveries
// @Produce      json
// @Param        status   query  string  false  "sent or failed"
// @Param        email    query  string  false  "Recipient address"
// @Param        batch_id query  string  false  "Dispatch batch id"
// @Param        limit    query  int     false  "Maximum records (default 50, max 500)"
// @Success      200 {object} DeliveryList
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /deliveries [get]
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.DeliveryQuery{
		Status:  q.Get("status"),
		Email:   q.Get("email"),
		BatchID: q.Get("batch_id"),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		query.Limit = limit
	}

	records, err := s.deliverySvc.ListDeliveries(r.Context(), query)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		s.logger.Error("listing deliveries failed", slog.String("error", err.Error()))
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to list deliveries", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, DeliveryList{Deliveries: records, Count: len(records)})
}
