package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaharia-lab/alertmail/internal/notification"
)

// SentMessage is the summary message of a completed dispatch.
const SentMessage = "Emails sent successfully"

// SendRequest asks for a security alert to be sent to every address in Emails.
// A nil Emails slice means the field was absent; an empty one is valid.
type SendRequest struct {
	Emails   []string `json:"emails" yaml:"emails"`
	Platform string   `json:"platform" yaml:"platform"`
	Link     string   `json:"link" yaml:"link"`
}

// SendResult is the aggregate outcome of a dispatch. Results[i] belongs to
// the i-th requested address.
type SendResult struct {
	Message string                 `json:"message"`
	Count   int                    `json:"count"`
	Results []notification.Outcome `json:"results"`
}

// Failed returns the number of recipients whose send failed.
func (r *SendResult) Failed() int {
	n := 0
	for _, o := range r.Results {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Dispatcher sends a rendered alert to many recipients.
type Dispatcher interface {
	Backend() string
	Dispatch(ctx context.Context, alert *notification.Alert, from notification.Sender, recipients []string) []notification.Outcome
}

// AlertService defines the business logic for sending security alerts.
type AlertService interface {
	// SendAlert validates req, renders the alert once and sends one copy per
	// recipient. Per-recipient failures are reported in the result, not as an error.
	SendAlert(ctx context.Context, req *SendRequest) (*SendResult, error)
}

type alertService struct {
	dispatcher Dispatcher
	sender     notification.Sender
	logger     *slog.Logger
}

// NewAlertService returns an AlertService that sends from sender through dispatcher.
func NewAlertService(dispatcher Dispatcher, sender notification.Sender, logger *slog.Logger) AlertService {
	if logger == nil {
		logger = slog.Default()
	}
	return &alertService{dispatcher: dispatcher, sender: sender, logger: logger}
}

func (s *alertService) SendAlert(ctx context.Context, req *SendRequest) (*SendResult, error) {
	if err := validateSendRequest(req); err != nil {
		return nil, err
	}
	if s.dispatcher == nil {
		return nil, &DeliveryError{Err: errors.New("no mail backend configured")}
	}

	alert, err := notification.RenderAlert(req.Platform, req.Link)
	if err != nil {
		return nil, &DeliveryError{Err: fmt.Errorf("rendering alert: %w", err)}
	}

	outcomes := s.dispatcher.Dispatch(ctx, alert, s.sender, req.Emails)
	result := &SendResult{
		Message: SentMessage,
		Count:   len(outcomes),
		Results: outcomes,
	}

	s.logger.Info("alert dispatched",
		slog.String("platform", req.Platform),
		slog.String("backend", s.dispatcher.Backend()),
		slog.Int("count", result.Count),
		slog.Int("failed", result.Failed()),
	)
	return result, nil
}

func validateSendRequest(req *SendRequest) error {
	switch {
	case req == nil:
		return &ValidationError{Message: MissingFieldsMessage}
	case req.Emails == nil:
		return &ValidationError{Field: "emails", Message: MissingFieldsMessage}
	case req.Platform == "":
		return &ValidationError{Field: "platform", Message: MissingFieldsMessage}
	case req.Link == "":
		return &ValidationError{Field: "link", Message: MissingFieldsMessage}
	}
	return nil
}
