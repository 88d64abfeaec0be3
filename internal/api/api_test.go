package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/alertmail/internal/api"
	"github.com/shaharia-lab/alertmail/internal/build"
	"github.com/shaharia-lab/alertmail/internal/notification"
	"github.com/shaharia-lab/alertmail/internal/service"
	svcmocks "github.com/shaharia-lab/alertmail/internal/service/mocks"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

// testHarness bundles the mocks and router used by every test.
type testHarness struct {
	alertSvc *svcmocks.MockAlertService
	router   chi.Router
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	alertSvc := new(svcmocks.MockAlertService)
	srv := api.New(alertSvc, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	srv.Mount(r)

	return &testHarness{alertSvc: alertSvc, router: r}
}

// newRealHarness wires the real alert service to provider.
func newRealHarness(t *testing.T, provider notification.Provider) chi.Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := notification.NewDispatcher(provider, notification.WithDispatcherLogger(logger))
	svc := service.NewAlertService(d, notification.Sender{Address: "alerts@example.com"}, logger)

	r := chi.NewRouter()
	api.New(svc, nil, logger).Mount(r)
	return r
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func postMessages(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ---------- POST /messages ----------

func TestSendMessages_Success(t *testing.T) {
	h := newHarness(t)
	result := &service.SendResult{
		Message: service.SentMessage,
		Count:   2,
		Results: []notification.Outcome{
			{Email: "a@example.com", Info: &notification.Receipt{MessageID: "m-1"}},
			{Email: "b@example.com", Error: &notification.Failure{Message: "rejected", Code: "MessageRejected"}},
		},
	}
	h.alertSvc.On("SendAlert", mock.Anything, &service.SendRequest{
		Emails:   []string{"a@example.com", "b@example.com"},
		Platform: "Acme",
		Link:     "https://x/y",
	}).Return(result, nil)

	w := h.do(postMessages(`{"emails":["a@example.com","b@example.com"],"platform":"Acme","link":"https://x/y"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"message": "Emails sent successfully",
		"count": 2,
		"results": [
			{"email": "a@example.com", "info": {"messageId": "m-1"}},
			{"email": "b@example.com", "error": {"message": "rejected", "code": "MessageRejected"}}
		]
	}`, w.Body.String())
	h.alertSvc.AssertExpectations(t)
}

func TestSendMessages_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"emails":`},
		{name: "emails wrong type", body: `{"emails":"a@example.com","platform":"Acme","link":"https://x/y"}`},
		{name: "emails with non-string", body: `{"emails":[1,2],"platform":"Acme","link":"https://x/y"}`},
		{name: "platform wrong type", body: `{"emails":[],"platform":42,"link":"https://x/y"}`},
		{name: "empty body", body: ``},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)

			w := h.do(postMessages(tc.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"Missing required fields: emails, platform, link"}`, w.Body.String())
			h.alertSvc.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
		})
	}
}

func TestSendMessages_ValidationError(t *testing.T) {
	h := newHarness(t)
	h.alertSvc.On("SendAlert", mock.Anything, mock.Anything).
		Return(nil, &service.ValidationError{Field: "platform", Message: service.MissingFieldsMessage})

	w := h.do(postMessages(`{"emails":["a@example.com"],"link":"https://x/y"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required fields: emails, platform, link"}`, w.Body.String())
}

func TestSendMessages_InternalError(t *testing.T) {
	h := newHarness(t)
	h.alertSvc.On("SendAlert", mock.Anything, mock.Anything).
		Return(nil, &service.DeliveryError{Err: errors.New("no mail backend configured")})

	w := h.do(postMessages(`{"emails":["a@example.com"],"platform":"Acme","link":"https://x/y"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to send emails", body["error"])
	assert.Equal(t, "delivering alert: no mail backend configured", body["details"])
}

// ---------- end to end through the real service ----------

type stubProvider struct {
	delay time.Duration
	fail  map[string]bool
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Send(_ context.Context, msg notification.Message) (*notification.Receipt, error) {
	time.Sleep(p.delay)
	if p.fail[msg.To] {
		return nil, &notification.SendError{Provider: "stub", Code: "MessageRejected", Err: errors.New("address blocked")}
	}
	return &notification.Receipt{MessageID: "id-" + msg.To}, nil
}

func TestSendMessages_EndToEnd(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCount  int
	}{
		{
			name:       "three recipients",
			body:       `{"emails":["a@x.io","b@x.io","c@x.io"],"platform":"Acme","link":"https://x/y"}`,
			wantStatus: http.StatusOK,
			wantCount:  3,
		},
		{
			name:       "empty recipients",
			body:       `{"emails":[],"platform":"Acme","link":"https://x/y"}`,
			wantStatus: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "missing emails",
			body:       `{"platform":"Acme","link":"https://x/y"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "null emails",
			body:       `{"emails":null,"platform":"Acme","link":"https://x/y"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty platform",
			body:       `{"emails":["a@x.io"],"platform":"","link":"https://x/y"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing link",
			body:       `{"emails":["a@x.io"],"platform":"Acme"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRealHarness(t, &stubProvider{})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, postMessages(tc.body))

			require.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus != http.StatusOK {
				return
			}

			var res struct {
				Message string            `json:"message"`
				Count   int               `json:"count"`
				Results []json.RawMessage `json:"results"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, "Emails sent successfully", res.Message)
			assert.Equal(t, tc.wantCount, res.Count)
			assert.NotNil(t, res.Results)
			assert.Len(t, res.Results, tc.wantCount)
		})
	}
}

func TestSendMessages_PartialFailureStillOK(t *testing.T) {
	r := newRealHarness(t, &stubProvider{fail: map[string]bool{"bad@x.io": true}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, postMessages(`{"emails":["ok@x.io","bad@x.io"],"platform":"Acme","link":"https://x/y"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"message": "Emails sent successfully",
		"count": 2,
		"results": [
			{"email": "ok@x.io", "info": {"messageId": "id-ok@x.io"}},
			{"email": "bad@x.io", "error": {"message": "address blocked", "code": "MessageRejected"}}
		]
	}`, w.Body.String())
}

func TestSendMessages_SendsConcurrently(t *testing.T) {
	r := newRealHarness(t, &stubProvider{delay: 200 * time.Millisecond})

	start := time.Now()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, postMessages(`{"emails":["a@x.io","b@x.io","c@x.io","d@x.io","e@x.io"],"platform":"Acme","link":"https://x/y"}`))
	elapsed := time.Since(start)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Less(t, elapsed, 800*time.Millisecond)
}

// ---------- GET /version ----------

func TestVersion(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, build.Version, body["version"])
	assert.Contains(t, body, "commit")
	assert.Contains(t, body, "build_date")
}

// ---------- GET /deliveries ----------

func newDeliveriesRouter(t *testing.T) (chi.Router, *svcmocks.MockDeliveryService) {
	t.Helper()
	deliverySvc := new(svcmocks.MockDeliveryService)
	r := chi.NewRouter()
	api.New(new(svcmocks.MockAlertService), deliverySvc, slog.New(slog.NewTextHandler(io.Discard, nil))).Mount(r)
	return r, deliverySvc
}

func TestListDeliveries(t *testing.T) {
	r, deliverySvc := newDeliveriesRouter(t)
	records := []storage.DeliveryRecord{
		{ID: 2, BatchID: "b1", Backend: "ses", Email: "a@example.com", Status: "failed", ErrorMsg: "rejected"},
	}
	deliverySvc.On("ListDeliveries", mock.Anything, service.DeliveryQuery{
		Status: "failed", Email: "a@example.com", Limit: 10,
	}).Return(records, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deliveries?status=failed&email=a@example.com&limit=10", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body api.DeliveryList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "rejected", body.Deliveries[0].ErrorMsg)
	deliverySvc.AssertExpectations(t)
}

func TestListDeliveries_Errors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		svcErr     error
		wantStatus int
	}{
		{"non-numeric limit", "/deliveries?limit=ten", nil, http.StatusBadRequest},
		{"validation error", "/deliveries?status=bounced", &service.ValidationError{Field: "status", Message: "bad"}, http.StatusBadRequest},
		{"store failure", "/deliveries", errors.New("database is locked"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, deliverySvc := newDeliveriesRouter(t)
			if tt.svcErr != nil {
				deliverySvc.On("ListDeliveries", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestListDeliveries_NotMountedWithoutStore(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/deliveries", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
