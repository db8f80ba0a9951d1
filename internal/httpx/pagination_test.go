package httpx

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func pageFor(t *testing.T, target string) Page {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	return ParsePage(c)
}

func TestParsePageDefaults(t *testing.T) {
	p := pageFor(t, "/offers/my")
	if p.Page != 1 || p.Limit != 10 {
		t.Fatalf("expected defaults 1/10, got %d/%d", p.Page, p.Limit)
	}
	if p.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", p.Offset())
	}
}

func TestParsePageIgnoresBadValues(t *testing.T) {
	p := pageFor(t, "/offers/my?page=zero&limit=-4")
	if p.Page != 1 || p.Limit != 10 {
		t.Fatalf("expected defaults on bad input, got %d/%d", p.Page, p.Limit)
	}
}

func TestParsePageOffset(t *testing.T) {
	p := pageFor(t, "/orders/my?page=3&limit=20")
	if p.Offset() != 40 {
		t.Fatalf("expected offset 40, got %d", p.Offset())
	}
}

func TestParsePageCapsLimit(t *testing.T) {
	p := pageFor(t, "/orders/my?limit=5000")
	if p.Limit != 10 {
		t.Fatalf("expected oversized limit to fall back to default, got %d", p.Limit)
	}
}

func TestNewMetaRoundsPagesUp(t *testing.T) {
	m := NewMeta(Page{Page: 2, Limit: 10}, 25)
	if m.TotalPages != 3 {
		t.Fatalf("expected 3 pages for 25 items, got %d", m.TotalPages)
	}
	if m.CurrentPage != 2 || m.TotalItems != 25 || m.ItemsPerPage != 10 {
		t.Fatalf("unexpected meta: %+v", m)
	}
}

func TestNewMetaEmpty(t *testing.T) {
	m := NewMeta(Page{Page: 1, Limit: 10}, 0)
	if m.TotalPages != 0 || m.TotalItems != 0 {
		t.Fatalf("unexpected meta for empty result: %+v", m)
	}
}
