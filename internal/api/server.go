package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/alertmail/internal/service"
)

// Server holds all dependencies for the REST API handlers.
type Server struct {
	alertSvc    service.AlertService
	deliverySvc service.DeliveryService
	logger      *slog.Logger
}

// New creates a new API Server backed by the provided services.
// deliverySvc may be nil when the delivery log is disabled.
func New(alertSvc service.AlertService, deliverySvc service.DeliveryService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		alertSvc:    alertSvc,
		deliverySvc: deliverySvc,
		logger:      logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/messages", s.handleSendMessages)
	r.Get("/version", s.handleVersion)
	if s.deliverySvc != nil {
		r.Get("/deliveries", s.handleListDeliveries)
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error" example:"Failed to send emails"`
	Details string `json:"details,omitempty" example:"no mail backend configured"`
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}
