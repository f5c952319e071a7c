package medication

import (
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

func newTestServer(t *testing.T) (*echo.Echo, *clockStub) {
	t.Helper()
	svc, clk := newTestService(t, at(t, "2026-06-01", "07:00"))
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop(), true)
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1", auth.DevAuthMiddleware()))
	return e, clk
}

func TestCreateAndAdministerEndpoints(t *testing.T) {
	e, clk := newTestServer(t)

	body := `{"patient_id":"` + uuid.New().String() + `","medication_name":"amoxicillin","dosage":"500mg","times":["08:00","20:00"],"start_date":"2026-06-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/medication", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	var sched Schedule
	if err := json.Unmarshal(rec.Body.Bytes(), &sched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sched.NextDoseTime == nil {
		t.Fatal("expected computed next dose")
	}

	clk.Set(at(t, "2026-06-01", "08:05"))
	req = httptest.NewRequest(http.MethodPut, "/api/v1/medication/"+sched.ID.String()+"/administer", strings.NewReader(`{"notes":"ok"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("administer status %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sched.NextDoseTime == nil || !sched.NextDoseTime.Equal(at(t, "2026-06-01", "20:00")) {
		t.Errorf("next dose %v, want today 20:00", sched.NextDoseTime)
	}
}

func TestCreateEndpoint_Validation(t *testing.T) {
	e, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/medication", strings.NewReader(`{"dosage":"500mg"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}
