package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractHospitalSlug_FromHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Hospital", "st-marys")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	slug := extractHospitalSlug(c, "default")
	if slug != "st-marys" {
		t.Errorf("expected st-marys, got %s", slug)
	}
}

func TestExtractHospitalSlug_FromSubdomain(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "greenfield.carelink.example:8000"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	slug := extractHospitalSlug(c, "default")
	if slug != "greenfield" {
		t.Errorf("expected greenfield, got %s", slug)
	}
}

func TestExtractHospitalSlug_FromJWT(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("jwt_hospital_slug", "jwt-hospital")

	slug := extractHospitalSlug(c, "default")
	if slug != "jwt-hospital" {
		t.Errorf("expected jwt-hospital, got %s", slug)
	}
}

func TestExtractHospitalSlug_Default(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "localhost:8000"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	slug := extractHospitalSlug(c, "default")
	if slug != "default" {
		t.Errorf("expected default, got %s", slug)
	}
}

func TestExtractHospitalSlug_Priority(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "hostslug.carelink.example"
	req.Header.Set("X-Hospital", "header-slug")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("jwt_hospital_slug", "jwt-slug")

	// JWT takes highest priority
	slug := extractHospitalSlug(c, "default")
	if slug != "jwt-slug" {
		t.Errorf("expected jwt-slug (highest priority), got %s", slug)
	}
}

func TestSubdomainFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"stmarys.carelink.example", "stmarys"},
		{"stmarys.localhost:8000", "stmarys"},
		{"www.carelink.example", ""},
		{"localhost", ""},
		{"localhost:8000", ""},
		{"127.0.0.1", ""},
		{"127.0.0.1:8000", ""},
	}
	for _, tt := range tests {
		if got := subdomainFromHost(tt.host); got != tt.want {
			t.Errorf("subdomainFromHost(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestHospitalSlugPattern(t *testing.T) {
	valid := []string{"abc", "st-marys", "hospital-1", "a1-b2-c3"}
	for _, v := range valid {
		if !hospitalSlugPattern.MatchString(v) {
			t.Errorf("expected %s to be valid", v)
		}
	}

	invalid := []string{"a_b", "A-B", "a.b", "a b", "-abc", "abc-", "'; DROP TABLE", ""}
	for _, v := range invalid {
		if hospitalSlugPattern.MatchString(v) {
			t.Errorf("expected %s to be invalid", v)
		}
	}
}

func TestSchemaForHospital(t *testing.T) {
	if got := SchemaForHospital("st-marys"); got != "hospital_st_marys" {
		t.Errorf("expected hospital_st_marys, got %s", got)
	}
	if got := SchemaForHospital("default"); got != "hospital_default" {
		t.Errorf("expected hospital_default, got %s", got)
	}
}

func TestConnFromContext_Nil(t *testing.T) {
	conn := ConnFromContext(context.Background())
	if conn != nil {
		t.Error("expected nil conn from empty context")
	}
}

func TestHospitalFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), HospitalSlugKey, "st-marys")
	if slug := HospitalFromContext(ctx); slug != "st-marys" {
		t.Errorf("expected st-marys, got %s", slug)
	}

	if empty := HospitalFromContext(context.Background()); empty != "" {
		t.Errorf("expected empty string, got %s", empty)
	}
}

func TestCreateHospitalSchema_InvalidSlug(t *testing.T) {
	err := CreateHospitalSchema(context.Background(), nil, "invalid slug!", "")
	if err == nil {
		t.Error("expected error for invalid hospital slug")
	}
}
