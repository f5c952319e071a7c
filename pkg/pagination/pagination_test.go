package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", DefaultLimit, 0},
		{"limit=50&offset=10", 50, 10},
		{"limit=9999", MaxLimit, 0},
		{"limit=-5&offset=-1", DefaultLimit, 0},
	}
	for _, tc := range cases {
		p := paramsFor(t, tc.query)
		if p.Limit != tc.limit || p.Offset != tc.offset {
			t.Errorf("%q: got %+v, want limit=%d offset=%d", tc.query, p, tc.limit, tc.offset)
		}
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]int{1, 2, 3}, 10, 3, 0)
	if !r.HasMore {
		t.Error("expected more pages")
	}
	r = NewResponse([]int{1}, 1, 20, 0)
	if r.HasMore {
		t.Error("expected no more pages")
	}
}
