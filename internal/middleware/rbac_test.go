package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func callWithRole(t *testing.T, mw echo.MiddlewareFunc, role string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	rec := callWithRole(t, RequireRoles("farmer", "admin"), "farmer")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRolesAdminOnly(t *testing.T) {
	if rec := callWithRole(t, RequireRoles("admin"), "admin"); rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
	for _, role := range []string{"farmer", "buyer"} {
		if rec := callWithRole(t, RequireRoles("admin"), role); rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", role, rec.Code)
		}
	}
}

func TestRequireRolesMissingRole(t *testing.T) {
	rec := callWithRole(t, RequireRoles("admin"), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
