package db

import (
	"encoding/json"
	"testing"
)

func TestPoolStats_Healthy(t *testing.T) {
	stats := &PoolStats{
		TotalConns:      10,
		IdleConns:       6,
		AcquiredConns:   4,
		MaxConns:        20,
		AcquireCount:    120,
		AcquireDuration: "1.5s",
		Healthy:         true,
	}

	if stats.TotalConns != 10 {
		t.Errorf("expected TotalConns 10, got %d", stats.TotalConns)
	}
	if stats.IdleConns != 6 {
		t.Errorf("expected IdleConns 6, got %d", stats.IdleConns)
	}
	if stats.AcquiredConns != 4 {
		t.Errorf("expected AcquiredConns 4, got %d", stats.AcquiredConns)
	}
	if stats.MaxConns != 20 {
		t.Errorf("expected MaxConns 20, got %d", stats.MaxConns)
	}
	if stats.AcquireCount != 120 {
		t.Errorf("expected AcquireCount 120, got %d", stats.AcquireCount)
	}
	if !stats.Healthy {
		t.Error("expected Healthy to be true")
	}
}

func TestPoolStats_UnhealthyWithNoConns(t *testing.T) {
	stats := &PoolStats{
		MaxConns:        20,
		AcquireDuration: "0s",
	}

	if stats.Healthy {
		t.Error("expected Healthy to be false when TotalConns is 0")
	}
	if stats.TotalConns != 0 {
		t.Errorf("expected TotalConns 0, got %d", stats.TotalConns)
	}
}

func TestPoolStats_JSONShape(t *testing.T) {
	stats := PoolStats{
		TotalConns:      1,
		IdleConns:       1,
		MaxConns:        10,
		AcquireCount:    50,
		AcquireDuration: "250ms",
		Healthy:         true,
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal pool stats: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal pool stats: %v", err)
	}

	for _, key := range []string{"total_conns", "idle_conns", "acquired_conns", "max_conns", "acquire_count", "acquire_duration", "healthy"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected key %q in pool stats payload", key)
		}
	}
	if decoded["acquire_duration"] != "250ms" {
		t.Errorf("expected acquire_duration 250ms, got %v", decoded["acquire_duration"])
	}
	if decoded["healthy"] != true {
		t.Error("expected healthy true in payload")
	}
}
