package analytics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestUsageTracker_Record(t *testing.T) {
	tracker := NewUsageTracker(1000)
	tracker.Record(&RequestMetric{
		Timestamp:    time.Now(),
		Method:       "GET",
		Path:         "/api/v1/assessments",
		StatusCode:   200,
		Duration:     50 * time.Millisecond,
		ActorID:      "admin-1",
		EntityType:   "assessments",
		RequestSize:  128,
		ResponseSize: 4096,
	})

	overview := tracker.GetOverview()
	if overview.TotalRequests != 1 {
		t.Fatalf("expected TotalRequests=1, got %d", overview.TotalRequests)
	}
	if overview.TotalErrors != 0 {
		t.Fatalf("expected TotalErrors=0, got %d", overview.TotalErrors)
	}
	if overview.UniqueActors != 1 {
		t.Fatalf("expected UniqueActors=1, got %d", overview.UniqueActors)
	}
}

func TestUsageTracker_RingBufferCap(t *testing.T) {
	maxMetrics := 100
	tracker := NewUsageTracker(maxMetrics)

	for i := 0; i < 250; i++ {
		tracker.Record(&RequestMetric{
			Timestamp:  time.Now(),
			Method:     "GET",
			Path:       fmt.Sprintf("/api/v1/assessments/%d", i),
			StatusCode: 200,
			Duration:   time.Millisecond,
			ActorID:    "admin-1",
		})
	}

	tracker.mu.RLock()
	count := len(tracker.metrics)
	tracker.mu.RUnlock()

	if count != maxMetrics {
		t.Fatalf("expected ring buffer to cap at %d, got %d", maxMetrics, count)
	}

	overview := tracker.GetOverview()
	if overview.TotalRequests != 250 {
		t.Fatalf("expected TotalRequests=250, got %d", overview.TotalRequests)
	}
}

func TestUsageTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewUsageTracker(100000)
	var wg sync.WaitGroup
	goroutines := 100
	perGoroutine := 100

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				tracker.Record(&RequestMetric{
					Timestamp:  time.Now(),
					Method:     "GET",
					Path:       "/api/v1/assessments",
					StatusCode: 200,
					Duration:   time.Millisecond,
					ActorID:    fmt.Sprintf("admin-%d", id),
					EntityType: "assessments",
				})
			}
		}(g)
	}
	wg.Wait()

	overview := tracker.GetOverview()
	expected := int64(goroutines * perGoroutine)
	if overview.TotalRequests != expected {
		t.Fatalf("expected TotalRequests=%d, got %d", expected, overview.TotalRequests)
	}
}

func TestUsageTracker_EndpointStats(t *testing.T) {
	tracker := NewUsageTracker(1000)
	for i := 0; i < 10; i++ {
		status := 200
		if i < 2 {
			status = 500
		}
		tracker.Record(&RequestMetric{
			Timestamp:  time.Now(),
			Method:     "GET",
			Path:       "/api/v1/practices",
			StatusCode: status,
			Duration:   10 * time.Millisecond,
		})
	}

	summary := tracker.GetEndpointStats("/api/v1/practices")
	if summary == nil {
		t.Fatal("expected endpoint summary")
	}
	if summary.TotalRequests != 10 {
		t.Errorf("expected 10 requests, got %d", summary.TotalRequests)
	}
	if summary.ErrorRate != 0.2 {
		t.Errorf("expected error rate 0.2, got %f", summary.ErrorRate)
	}
	if summary.AvgLatency != 10*time.Millisecond {
		t.Errorf("expected avg latency 10ms, got %v", summary.AvgLatency)
	}
	if summary.StatusBreakdown[500] != 2 {
		t.Errorf("expected 2 500s, got %d", summary.StatusBreakdown[500])
	}

	if tracker.GetEndpointStats("/api/v1/unknown") != nil {
		t.Error("expected nil for unknown endpoint")
	}
}

func TestUsageTracker_ActorStats(t *testing.T) {
	tracker := NewUsageTracker(1000)
	now := time.Now()
	tracker.Record(&RequestMetric{
		Timestamp:  now,
		Method:     "POST",
		Path:       "/api/v1/content",
		StatusCode: 201,
		ActorID:    "admin-1",
	})
	tracker.Record(&RequestMetric{
		Timestamp:  now.Add(time.Second),
		Method:     "GET",
		Path:       "/api/v1/content",
		StatusCode: 404,
		ActorID:    "admin-1",
	})

	summary := tracker.GetActorStats("admin-1")
	if summary == nil {
		t.Fatal("expected actor summary")
	}
	if summary.TotalRequests != 2 {
		t.Errorf("expected 2 requests, got %d", summary.TotalRequests)
	}
	if summary.ErrorRate != 0.5 {
		t.Errorf("expected error rate 0.5, got %f", summary.ErrorRate)
	}
	if !summary.LastSeen.Equal(now.Add(time.Second)) {
		t.Errorf("expected last seen %v, got %v", now.Add(time.Second), summary.LastSeen)
	}
}

func TestUsageTracker_EntityBreakdown(t *testing.T) {
	tracker := NewUsageTracker(1000)

	record := func(method, path string) {
		tracker.Record(&RequestMetric{
			Timestamp:  time.Now(),
			Method:     method,
			Path:       path,
			StatusCode: 200,
			EntityType: extractEntityType(path),
		})
	}

	record("POST", "/api/v1/assessments")
	record("GET", "/api/v1/assessments")
	record("GET", "/api/v1/assessments/abc")
	record("PUT", "/api/v1/assessments/abc")
	record("DELETE", "/api/v1/assessments/abc")

	summary := tracker.GetEntityStats("assessments")
	if summary == nil {
		t.Fatal("expected entity summary")
	}
	if summary.CreateCount != 1 {
		t.Errorf("expected 1 create, got %d", summary.CreateCount)
	}
	if summary.ListCount != 1 {
		t.Errorf("expected 1 list, got %d", summary.ListCount)
	}
	if summary.ReadCount != 1 {
		t.Errorf("expected 1 read, got %d", summary.ReadCount)
	}
	if summary.UpdateCount != 1 {
		t.Errorf("expected 1 update, got %d", summary.UpdateCount)
	}
	if summary.DeleteCount != 1 {
		t.Errorf("expected 1 delete, got %d", summary.DeleteCount)
	}
	if summary.Total != 5 {
		t.Errorf("expected total 5, got %d", summary.Total)
	}

	breakdown := tracker.GetEntityBreakdown()
	if len(breakdown) != 1 {
		t.Fatalf("expected 1 entity in breakdown, got %d", len(breakdown))
	}
}

func TestUsageTracker_TopEndpoints(t *testing.T) {
	tracker := NewUsageTracker(1000)
	for i := 0; i < 5; i++ {
		tracker.Record(&RequestMetric{Timestamp: time.Now(), Method: "GET", Path: "/api/v1/assessments", StatusCode: 200})
	}
	for i := 0; i < 3; i++ {
		tracker.Record(&RequestMetric{Timestamp: time.Now(), Method: "GET", Path: "/api/v1/practices", StatusCode: 200})
	}

	top := tracker.GetTopEndpoints(10)
	if len(top) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(top))
	}
	if top[0].Path != "/api/v1/assessments" {
		t.Errorf("expected assessments first, got %s", top[0].Path)
	}

	top = tracker.GetTopEndpoints(1)
	if len(top) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(top))
	}
}

func TestUsageTracker_TimeSeries(t *testing.T) {
	tracker := NewUsageTracker(1000)
	now := time.Now()

	tracker.Record(&RequestMetric{
		Timestamp:  now.Add(-30 * time.Second),
		Method:     "GET",
		Path:       "/api/v1/assessments",
		StatusCode: 200,
		Duration:   20 * time.Millisecond,
	})
	tracker.Record(&RequestMetric{
		Timestamp:  now.Add(-30 * time.Second),
		Method:     "GET",
		Path:       "/api/v1/assessments",
		StatusCode: 500,
		Duration:   40 * time.Millisecond,
	})

	buckets := tracker.GetTimeSeries(time.Minute, 5*time.Minute)
	if len(buckets) == 0 {
		t.Fatal("expected time series buckets")
	}

	var total, errs int64
	for _, b := range buckets {
		total += b.RequestCount
		errs += b.ErrorCount
	}
	if total != 2 {
		t.Errorf("expected 2 requests across buckets, got %d", total)
	}
	if errs != 1 {
		t.Errorf("expected 1 error across buckets, got %d", errs)
	}
}

func TestExtractEntityType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/assessments/123", "assessments"},
		{"/api/v1/assessments", "assessments"},
		{"/api/v1/support/tickets", "support"},
		{"/health", ""},
		{"/api/v1/", ""},
	}

	for _, tt := range tests {
		if got := extractEntityType(tt.path); got != tt.want {
			t.Errorf("extractEntityType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestUsageMiddleware_RecordsRequest(t *testing.T) {
	tracker := NewUsageTracker(1000)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := UsageMiddleware(tracker)
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tracker.GetOverview().TotalRequests != 1 {
		t.Error("expected request to be recorded")
	}
	if tracker.GetEntityStats("assessments") == nil {
		t.Error("expected entity type to be extracted")
	}
}

func TestUsageHandler_Overview(t *testing.T) {
	tracker := NewUsageTracker(1000)
	tracker.Record(&RequestMetric{Timestamp: time.Now(), Method: "GET", Path: "/api/v1/assessments", StatusCode: 200})

	h := NewUsageHandler(tracker)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/usage", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleOverview(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var overview UsageOverview
	if err := json.Unmarshal(rec.Body.Bytes(), &overview); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if overview.TotalRequests != 1 {
		t.Errorf("expected TotalRequests=1, got %d", overview.TotalRequests)
	}
}

func TestParseDurationParam(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Hour},
		{"5m", 5 * time.Minute},
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"bogus", time.Hour},
	}

	for _, tt := range tests {
		if got := parseDurationParam(tt.in, time.Hour); got != tt.want {
			t.Errorf("parseDurationParam(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
