package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestAudit_RecordsAPIAccess(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/0b1c8f7e-4a6d-4f0e-9c3a-2d5e8b7a1c9f", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("hospital_slug", "st-marys")
	c.Set("request_id", "rid-1")

	var got *AuditEntry
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		got = &entry
		return nil
	})

	handler := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if got == nil {
		t.Fatal("expected audit entry to be recorded")
	}
	if got.Resource != "patients" {
		t.Errorf("resource = %q, want patients", got.Resource)
	}
	if got.PatientID != "0b1c8f7e-4a6d-4f0e-9c3a-2d5e8b7a1c9f" {
		t.Errorf("patient_id = %q", got.PatientID)
	}
	if got.Action != "read" {
		t.Errorf("action = %q, want read", got.Action)
	}
	if got.Hospital != "st-marys" {
		t.Errorf("hospital = %q, want st-marys", got.Hospital)
	}
	if got.RequestID != "rid-1" {
		t.Errorf("request_id = %q, want rid-1", got.RequestID)
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	recorded := false
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		recorded = true
		return nil
	})

	handler := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if recorded {
		t.Error("health endpoint should not be audited")
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{http.MethodGet, "read"},
		{http.MethodHead, "read"},
		{http.MethodPost, "create"},
		{http.MethodPut, "update"},
		{http.MethodPatch, "update"},
		{http.MethodDelete, "delete"},
	}
	for _, tt := range tests {
		if got := httpMethodToAction(tt.method); got != tt.want {
			t.Errorf("httpMethodToAction(%s) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestExtractResource(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/patients", "patients"},
		{"/api/v1/patients/123", "patients"},
		{"/api/v1/referrals/9/actions", "referrals"},
		{"/api/v1/", "unknown"},
	}
	for _, tt := range tests {
		if got := extractResource(tt.path); got != tt.want {
			t.Errorf("extractResource(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExtractPatientID_QueryParam(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations?patient_id=abc-123", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if got := extractPatientID(c); got != "abc-123" {
		t.Errorf("expected abc-123, got %q", got)
	}
}
