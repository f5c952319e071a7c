package availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/auth"
)

func newTestServer(t *testing.T) (*echo.Echo, *mockTemplateRepo, *mockBookingLookup) {
	t.Helper()
	svc, repo, bookings := newTestService(t, false)
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop(), true)
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1", auth.DevAuthMiddleware()))
	return e, repo, bookings
}

func TestResolveAvailabilityEndpoint(t *testing.T) {
	e, repo, bookings := newTestServer(t)
	doctor := uuid.New()
	repo.Create(context.Background(), &Template{DoctorID: doctor, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"})
	bookings.book(doctor, monday, "09:00")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/"+doctor.String()+"/availability?date=2026-03-02", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var day Day
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(day.AvailableSlots) != 1 || day.AvailableSlots[0] != "9:30 AM" {
		t.Errorf("unexpected slots %v", day.AvailableSlots)
	}
	if day.Date != "2026-03-02" {
		t.Errorf("unexpected date %q", day.Date)
	}
}

func TestResolveAvailability_BadRequests(t *testing.T) {
	e, _, _ := newTestServer(t)
	doctor := uuid.New()

	cases := []struct {
		name string
		path string
	}{
		{"missing date", "/api/v1/doctors/" + doctor.String() + "/availability"},
		{"bad date", "/api/v1/doctors/" + doctor.String() + "/availability?date=03-02-2026"},
		{"bad doctor id", "/api/v1/doctors/nope/availability?date=2026-03-02"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestTemplateEndpoints(t *testing.T) {
	e, _, _ := newTestServer(t)
	doctor := uuid.New()

	body := `{"doctor_id":"` + doctor.String() + `","day_of_week":1,"start_time":"9:00","end_time":"12:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/availability-templates", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	var created Template
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.StartTime != "09:00" {
		t.Errorf("start time not normalized: %q", created.StartTime)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/availability-templates?doctor_id="+doctor.String(), nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/availability-templates/"+created.ID.String(), nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/availability-templates/"+created.ID.String(), nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}
