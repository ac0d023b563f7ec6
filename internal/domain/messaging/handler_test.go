package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

func userRequest(method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandlerOpenThread(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc)

	body := fmt.Sprintf(`{"patient_id":%q,"subject":"lab results"}`, env.patient.ID)
	c, rec := userRequest(http.MethodPost, "/api/v1/threads", body, "dr-mensah")

	if err := h.OpenThread(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
}

func TestHandlerPostMessage_SenderFromAuth(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc)
	th := env.open(t)

	c, rec := userRequest(http.MethodPost, "/", `{"body":"please review"}`, "dr-mensah")
	c.SetParamNames("id")
	c.SetParamValues(th.ID.String())
	if err := h.PostMessage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got Message
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SenderID != "dr-mensah" {
		t.Errorf("sender = %s, want dr-mensah", got.SenderID)
	}
}

func TestHandlerMarkRead(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc)
	th := env.open(t)
	m, _ := env.svc.PostMessage(context.Background(), th.ID, "dr-mensah", "hello")

	c, rec := userRequest(http.MethodPost, "/", ``, "nurse-adjoa")
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())
	if err := h.MarkRead(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got Message
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ReadAt == nil {
		t.Error("read_at not stamped")
	}
}

func TestHandlerListThreads_RequiresPatient(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc)

	c, _ := userRequest(http.MethodGet, "/api/v1/threads", ``, "dr-mensah")
	err := h.ListThreads(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
