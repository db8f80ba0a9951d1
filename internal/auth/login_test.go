package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bahcemden/backend/internal/httpx"
)

func TestLoginValidatesRequest(t *testing.T) {
	h := NewHandler(nil)
	e := echo.New()
	e.Validator = httpx.NewValidator()

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"secret123"}`},
		{"missing password", `{"email":"ali@example.com"}`},
		{"malformed email", `{"email":"not-an-email","password":"secret123"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := h.Login(c); err != nil {
			t.Fatalf("%s: handler returned error: %v", tc.name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}
