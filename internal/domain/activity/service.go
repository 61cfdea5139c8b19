package activity

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mindhaven/mindhaven/internal/platform/middleware"
)

const recordTimeout = 5 * time.Second

var validActions = map[string]bool{
	"create": true, "update": true, "delete": true,
	"publish": true, "login": true, "export": true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordActivity implements middleware.ActivityRecorder. The middleware has
// no request context by the time entries are flushed, so persistence runs
// under its own deadline.
func (s *Service) RecordActivity(entry middleware.ActivityEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	e := &Entry{
		Timestamp:  entry.Timestamp,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		StatusCode: entry.StatusCode,
	}
	if entry.ActorID != "" {
		e.ActorID = &entry.ActorID
	}
	if entry.ActorEmail != "" {
		e.ActorEmail = &entry.ActorEmail
	}
	if entry.EntityID != "" {
		e.EntityID = &entry.EntityID
	}
	if entry.RequestID != "" {
		detail := fmt.Sprintf("%s %s (request %s)", entry.Method, entry.Path, entry.RequestID)
		e.Detail = &detail
	}
	return s.repo.Insert(ctx, e)
}

// Record persists an entry written directly by a domain service, for actions
// that never cross the HTTP layer (logins, scheduled jobs).
func (s *Service) Record(ctx context.Context, e *Entry) error {
	if e.Action == "" || !validActions[e.Action] {
		return fmt.Errorf("invalid action: %s", e.Action)
	}
	if e.EntityType == "" {
		return fmt.Errorf("entity_type is required")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return s.repo.Insert(ctx, e)
}

func (s *Service) Search(ctx context.Context, params SearchParams) ([]*Entry, int, error) {
	return s.repo.Search(ctx, params)
}

var csvHeader = []string{"ID", "Timestamp", "ActorID", "ActorEmail", "Action",
	"EntityType", "EntityID", "Detail", "IPAddress", "UserAgent", "StatusCode"}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ExportCSV writes the full filtered set as CSV to w.
func (s *Service) ExportCSV(ctx context.Context, params SearchParams, w io.Writer) error {
	entries, err := s.repo.SearchAll(ctx, params)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("activity export csv: write header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.ID.String(),
			e.Timestamp.Format(time.RFC3339),
			deref(e.ActorID),
			deref(e.ActorEmail),
			e.Action,
			e.EntityType,
			deref(e.EntityID),
			deref(e.Detail),
			e.IPAddress,
			e.UserAgent,
			fmt.Sprintf("%d", e.StatusCode),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("activity export csv: write record: %w", err)
		}
	}
	return nil
}

// ExportJSON writes the full filtered set as a JSON array to w.
func (s *Service) ExportJSON(ctx context.Context, params SearchParams, w io.Writer) error {
	entries, err := s.repo.SearchAll(ctx, params)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = make([]*Entry, 0)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("activity export json: %w", err)
	}
	return nil
}
