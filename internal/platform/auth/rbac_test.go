package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func roleContext(roles []string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/genes", nil)
	ctx := context.WithValue(req.Context(), UserRolesKey, roles)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestRequireRole_Allowed(t *testing.T) {
	c := roleContext([]string{"geneticist"})
	mw := RequireRole("admin", "geneticist")
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_AdminOverride(t *testing.T) {
	c := roleContext([]string{"admin"})
	mw := RequireRole("geneticist")
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	c := roleContext([]string{"clinician"})
	mw := RequireRole("admin", "geneticist")
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	c := roleContext(nil)
	mw := RequireRole("clinician")
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}
