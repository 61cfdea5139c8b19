package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mindhaven/mindhaven/internal/platform/auth"
)

// mockRecorder collects activity entries for assertions.
type mockRecorder struct {
	mu      sync.Mutex
	entries []ActivityEntry
	err     error // if set, RecordActivity returns this error
}

func (m *mockRecorder) RecordActivity(entry ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() ActivityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// newTestContext creates an echo context with optional request mutations.
func newTestContext(method, path string, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func withActor(userID, email string) func(*http.Request) {
	return func(req *http.Request) {
		ctx := req.Context()
		ctx = context.WithValue(ctx, auth.UserIDKey, userID)
		ctx = context.WithValue(ctx, auth.UserEmailKey, email)
		*req = *req.WithContext(ctx)
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestActivity_RecordsCreate(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodPost, "/api/v1/assessments",
		withActor("admin-1", "admin@example.com"),
	)
	c.Set("request_id", "req-abc")

	mw := Activity(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 activity entry, got %d", rec.count())
	}
	entry := rec.last()
	if entry.Action != "create" {
		t.Errorf("expected action create, got %s", entry.Action)
	}
	if entry.EntityType != "assessments" {
		t.Errorf("expected entity type assessments, got %s", entry.EntityType)
	}
	if entry.ActorID != "admin-1" {
		t.Errorf("expected actor admin-1, got %s", entry.ActorID)
	}
	if entry.ActorEmail != "admin@example.com" {
		t.Errorf("expected actor email admin@example.com, got %s", entry.ActorEmail)
	}
	if entry.RequestID != "req-abc" {
		t.Errorf("expected request id req-abc, got %s", entry.RequestID)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", entry.StatusCode)
	}
}

func TestActivity_ExtractsEntityID(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	id := uuid.New().String()

	c, _ := newTestContext(http.MethodPut, "/api/v1/practices/"+id,
		withActor("admin-1", "admin@example.com"),
	)

	mw := Activity(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := rec.last()
	if entry.Action != "update" {
		t.Errorf("expected action update, got %s", entry.Action)
	}
	if entry.EntityType != "practices" {
		t.Errorf("expected entity type practices, got %s", entry.EntityType)
	}
	if entry.EntityID != id {
		t.Errorf("expected entity id %s, got %s", id, entry.EntityID)
	}
}

func TestActivity_SkipsReads(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodGet, "/api/v1/assessments")

	mw := Activity(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 0 {
		t.Errorf("expected read request to be skipped, got %d entries", rec.count())
	}
}

func TestActivity_SkipsNonAPIPaths(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodPost, "/health")

	mw := Activity(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 0 {
		t.Errorf("expected non-API path to be skipped, got %d entries", rec.count())
	}
}

func TestActivity_RecordsExports(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodGet, "/api/v1/activity/export/csv",
		withActor("admin-1", "admin@example.com"),
	)

	mw := Activity(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected export to be recorded, got %d entries", rec.count())
	}
	if rec.last().Action != "export" {
		t.Errorf("expected action export, got %s", rec.last().Action)
	}
}

func TestActivity_DeleteAction(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	id := uuid.New().String()

	c, _ := newTestContext(http.MethodDelete, "/api/v1/content/"+id)

	mw := Activity(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := rec.last()
	if entry.Action != "delete" {
		t.Errorf("expected action delete, got %s", entry.Action)
	}
	if entry.EntityID != id {
		t.Errorf("expected entity id %s, got %s", id, entry.EntityID)
	}
}

func TestActivity_BulkPathHasNoEntityID(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodPost, "/api/v1/assessments/bulk/publish")

	mw := Activity(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := rec.last()
	if entry.EntityID != "" {
		t.Errorf("expected empty entity id for bulk path, got %s", entry.EntityID)
	}
}

func TestActivity_RecorderFailureDoesNotFailRequest(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{err: errors.New("db down")}

	c, httpRec := newTestContext(http.MethodPost, "/api/v1/assessments")

	mw := Activity(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("expected request to succeed despite recorder failure, got %v", err)
	}
	if httpRec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", httpRec.Code)
	}
}

func TestActivity_FansOutToAllRecorders(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	first := &mockRecorder{err: errors.New("db down")}
	second := &mockRecorder{}

	c, _ := newTestContext(http.MethodPost, "/api/v1/assessments",
		withActor("admin-1", "admin@example.com"),
	)

	mw := Activity(logger, first, second)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.count() != 1 {
		t.Errorf("expected first recorder to receive 1 entry, got %d", first.count())
	}
	if second.count() != 1 {
		t.Fatalf("expected second recorder to receive 1 entry despite the first failing, got %d", second.count())
	}
	if second.last().Action != "create" {
		t.Errorf("expected action create, got %s", second.last().Action)
	}
}

func TestActivity_NoRecorderLogsOnly(t *testing.T) {
	logger := zerolog.New(os.Stderr)

	c, _ := newTestContext(http.MethodPost, "/api/v1/assessments")

	mw := Activity(logger)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
