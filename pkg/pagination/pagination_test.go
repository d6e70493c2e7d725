package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "/")

	if p.Page != 1 {
		t.Errorf("expected default page 1, got %d", p.Page)
	}
	if p.PageSize != DefaultPageSize {
		t.Errorf("expected default page size %d, got %d", DefaultPageSize, p.PageSize)
	}
	if p.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset())
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := paramsFor(t, "/?page=3&page_size=25")

	if p.Page != 3 {
		t.Errorf("expected page 3, got %d", p.Page)
	}
	if p.PageSize != 25 {
		t.Errorf("expected page size 25, got %d", p.PageSize)
	}
	if p.Offset() != 50 {
		t.Errorf("expected offset 50, got %d", p.Offset())
	}
}

func TestFromContext_ClampsPage(t *testing.T) {
	p := paramsFor(t, "/?page=0")
	if p.Page != 1 {
		t.Errorf("expected page 0 clamped to 1, got %d", p.Page)
	}

	p = paramsFor(t, "/?page=-5")
	if p.Page != 1 {
		t.Errorf("expected negative page clamped to 1, got %d", p.Page)
	}
}

func TestFromContext_ClampsPageSize(t *testing.T) {
	p := paramsFor(t, "/?page_size=500")
	if p.PageSize != MaxPageSize {
		t.Errorf("expected page size clamped to %d, got %d", MaxPageSize, p.PageSize)
	}

	p = paramsFor(t, "/?page_size=-1")
	if p.PageSize != DefaultPageSize {
		t.Errorf("expected invalid page size to fall back to default, got %d", p.PageSize)
	}
}

func TestOffset_SecondPage(t *testing.T) {
	p := Params{Page: 2, PageSize: 10}
	if p.Offset() != 10 {
		t.Errorf("expected offset 10 for page 2 size 10, got %d", p.Offset())
	}
}

func TestHasNext(t *testing.T) {
	p := Params{Page: 2, PageSize: 10}
	if !p.HasNext(25) {
		t.Error("expected more results after page 2 of 25")
	}
	if p.HasNext(20) {
		t.Error("expected no more results after page 2 of 20")
	}
}

func TestNewResponse(t *testing.T) {
	p := Params{Page: 1, PageSize: 20}
	resp := NewResponse([]string{"a", "b"}, 42, p)

	if resp.Total != 42 {
		t.Errorf("expected total 42, got %d", resp.Total)
	}
	if resp.Page != 1 || resp.PageSize != 20 {
		t.Errorf("unexpected page info: %d/%d", resp.Page, resp.PageSize)
	}
	if !resp.HasMore {
		t.Error("expected has_more true")
	}
}
