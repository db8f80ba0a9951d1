package inventory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// The validation branches run before any database access, so a handler
// with a nil pool is enough to exercise them.

func invoke(t *testing.T, fn echo.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/inventory", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "farmer-1")
	if err := fn(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return body["error"]
}

func TestCreateRequiresCoreFields(t *testing.T) {
	h := NewHandler(nil)
	rec := invoke(t, h.Create, http.MethodPost, `{"itemName":"Tomato seeds","quantity":5,"unit":"kg"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "required") {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	h := NewHandler(nil)
	for _, qty := range []string{"0", "-2"} {
		rec := invoke(t, h.Create, http.MethodPost,
			`{"itemName":"Tomato seeds","category":"seeds","quantity":`+qty+`,"unit":"kg"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("quantity=%s: expected 400, got %d", qty, rec.Code)
		}
	}
}

func TestCreateRejectsNegativeCost(t *testing.T) {
	h := NewHandler(nil)
	rec := invoke(t, h.Create, http.MethodPost,
		`{"itemName":"Tomato seeds","category":"seeds","quantity":5,"unit":"kg","cost":-10}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "cost") {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestCreateRejectsMalformedDates(t *testing.T) {
	h := NewHandler(nil)
	rec := invoke(t, h.Create, http.MethodPost,
		`{"itemName":"Tomato seeds","category":"seeds","quantity":5,"unit":"kg","purchaseDate":"12/05/2026"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "YYYY-MM-DD") {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestUpdateValidatesProvidedFields(t *testing.T) {
	h := NewHandler(nil)
	rec := invoke(t, h.Update, http.MethodPut, `{"quantity":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("quantity=0: expected 400, got %d", rec.Code)
	}
	rec = invoke(t, h.Update, http.MethodPut, `{"cost":-1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("cost=-1: expected 400, got %d", rec.Code)
	}
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	h := NewHandler(nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/inventory", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
