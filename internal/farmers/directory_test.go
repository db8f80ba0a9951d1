package farmers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSearchRejectsOutOfRangeMinRating(t *testing.T) {
	h := NewHandler(nil)
	for _, v := range []string{"0.5", "6", "abc"} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/farmers/search?minRating="+v, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := h.Search(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("minRating=%s: expected 400, got %d", v, rec.Code)
		}
	}
}
