package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestKindOf(t *testing.T) {
	if KindOf(Validation("bad field")) != KindValidation {
		t.Error("expected validation kind")
	}
	if KindOf(fmt.Errorf("wrapped: %w", Conflict("slot taken"))) != KindConflict {
		t.Error("expected conflict kind through wrapping")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("plain errors classify as internal")
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("appointment")
	if err.Error() != "appointment not found" {
		t.Errorf("got %q", err.Error())
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)
	if !errors.Is(err, cause) {
		t.Error("Internal should wrap its cause")
	}
}

func callHandler(t *testing.T, err error, dev bool) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	HTTPErrorHandler(zerolog.Nop(), dev)(err, c)
	return rec
}

func TestHTTPErrorHandler_Statuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("missing description"), http.StatusBadRequest},
		{Conflict("slot already booked"), http.StatusConflict},
		{NotFound("bed allocation"), http.StatusNotFound},
		{Unauthorized("not your appointment"), http.StatusForbidden},
		{Internal(errors.New("db down")), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusTeapot, "teapot"), http.StatusTeapot},
	}
	for _, tc := range cases {
		rec := callHandler(t, tc.err, false)
		if rec.Code != tc.status {
			t.Errorf("%v: status %d, want %d", tc.err, rec.Code, tc.status)
		}
	}
}

func TestHTTPErrorHandler_HidesInternalDetail(t *testing.T) {
	rec := callHandler(t, Internal(errors.New("password=hunter2")), false)
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "internal error" {
		t.Errorf("internal detail leaked: %q", body["error"])
	}
}
