package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxpal/internal/availability"
	"github.com/danpilch/maxpal/internal/tz"
)

type stubResolver struct {
	result  availability.Result
	queries []availability.Query
}

func (s *stubResolver) Resolve(_ context.Context, q availability.Query) availability.Result {
	s.queries = append(s.queries, q)
	return s.result
}

func newTestRouter(res resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRouter(res, Options{
		CORSOrigins: []string{"*"},
		Credentials: Credentials{Username: "bot", Password: "secret"},
	}, logger)
}

const validBody = `{"origin":"FRPAR","destination":"FRLYS","fromTime":"2024-01-01T08:00","toTime":"2024-01-01T20:00","tgvmaxNumber":"HC123456789"}`

func doRequest(router http.Handler, body string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/travels", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.SetBasicAuth("bot", "secret")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTravelsRequiresCredentials(t *testing.T) {
	res := &stubResolver{}
	router := newTestRouter(res)

	rec := doRequest(router, validBody, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/travels", strings.NewReader(validBody))
	req.SetBasicAuth("bot", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", rec.Code)
	}
	if rec.Body.String() != "Access denied" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	if len(res.queries) != 0 {
		t.Error("resolver must not run without credentials")
	}
}

func TestTravelsRejectsInvalidBody(t *testing.T) {
	res := &stubResolver{}
	router := newTestRouter(res)

	bodies := []string{
		`not json`,
		`{"origin":"FRPAR","destination":"FRLYS","fromTime":"2024-01-01T08:00","toTime":"2024-01-01T20:00"}`,
		`{"origin":"PARIS-NORD","destination":"FRLYS","fromTime":"2024-01-01T08:00","toTime":"2024-01-01T20:00","tgvmaxNumber":"HC1"}`,
		`{"origin":"FRPAR","destination":"FRLYS","fromTime":"tomorrow","toTime":"2024-01-01T20:00","tgvmaxNumber":"HC1"}`,
		`{"origin":"FRPAR","destination":"FRLYS","fromTime":"2024-01-01T21:00","toTime":"2024-01-01T20:00","tgvmaxNumber":"HC1"}`,
	}
	for _, body := range bodies {
		rec := doRequest(router, body, true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for %s, got %d", body, rec.Code)
		}
	}

	if len(res.queries) != 0 {
		t.Error("resolver must not run for invalid requests")
	}
}

func TestTravelsReturnsAvailability(t *testing.T) {
	res := &stubResolver{result: availability.Result{Available: true, Hours: []string{"09:15"}}}
	router := newTestRouter(res)

	rec := doRequest(router, validBody, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		IsTgvmaxAvailable bool     `json:"isTgvmaxAvailable"`
		Hours             []string `json:"hours"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !body.IsTgvmaxAvailable || len(body.Hours) != 1 || body.Hours[0] != "09:15" {
		t.Errorf("unexpected response %+v", body)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a request id header")
	}

	if len(res.queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(res.queries))
	}
	q := res.queries[0]
	if q.Origin != "FRPAR" || q.Destination != "FRLYS" || q.CardNumber != "HC123456789" {
		t.Errorf("unexpected query %+v", q)
	}
	if !q.From.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, tz.Paris)) || !q.To.Equal(time.Date(2024, 1, 1, 20, 0, 0, 0, tz.Paris)) {
		t.Errorf("unexpected window %v - %v", q.From, q.To)
	}
}

func TestTravelsEmptyResultEncodesEmptyList(t *testing.T) {
	res := &stubResolver{result: availability.Result{Hours: []string{}}}
	router := newTestRouter(res)

	rec := doRequest(router, validBody, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"isTgvmaxAvailable":false,"hours":[]}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestHealthIsPublic(t *testing.T) {
	router := newTestRouter(&stubResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
