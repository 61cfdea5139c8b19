package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mindhaven/mindhaven/internal/platform/auth"
)

// ActivityEntry captures one admin action for the activity log: who did
// what to which entity, when, and from where.
type ActivityEntry struct {
	ActorID    string
	ActorEmail string
	Action     string // create, update, delete, read, export
	EntityType string
	EntityID   string
	Path       string
	Method     string
	IPAddress  string
	UserAgent  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// ActivityRecorder persists activity entries. The middleware depends on
// this interface rather than the activity domain so the two packages stay
// decoupled and tests can provide a mock.
type ActivityRecorder interface {
	RecordActivity(entry ActivityEntry) error
}

// ActivityRecorderFunc is a function adapter for ActivityRecorder.
type ActivityRecorderFunc func(entry ActivityEntry) error

func (f ActivityRecorderFunc) RecordActivity(entry ActivityEntry) error {
	return f(entry)
}

// Activity returns middleware that records admin actions under /api/v1 to
// the activity log. Read traffic is skipped; only mutating requests (and
// exports, which disclose data in bulk) are recorded. Failures to persist
// an entry are logged and never fail the request.
func Activity(logger zerolog.Logger, recorders ...ActivityRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !isRecordablePath(path) {
				return next(c)
			}

			action := methodToAction(req.Method)
			if isExportPath(path) {
				action = "export"
			}
			if action == "read" && !isExportPath(path) {
				return next(c)
			}

			// Run the handler first so the response status is known.
			err := next(c)

			entry := ActivityEntry{
				Action:     action,
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}

			ctx := req.Context()
			entry.ActorID = auth.UserIDFromContext(ctx)
			entry.ActorEmail = auth.UserEmailFromContext(ctx)

			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			entry.EntityType, entry.EntityID = splitEntityPath(path)

			for _, rec := range recorders {
				if rec == nil {
					continue
				}
				if recErr := rec.RecordActivity(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record activity entry")
				}
			}

			logger.Info().
				Str("type", "admin_activity").
				Str("request_id", entry.RequestID).
				Str("actor_id", entry.ActorID).
				Str("action", entry.Action).
				Str("entity_type", entry.EntityType).
				Str("entity_id", entry.EntityID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("activity")

			return err
		}
	}
}

func isRecordablePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/")
}

func isExportPath(path string) bool {
	return strings.Contains(path, "/export/")
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitEntityPath parses "/api/v1/assessments/<id>/..." into the entity
// type ("assessments") and, when the second segment looks like an
// identifier, the entity ID.
func splitEntityPath(path string) (entityType, entityID string) {
	trimmed := strings.TrimPrefix(path, "/api/v1/")
	segments := strings.Split(trimmed, "/")
	if len(segments) > 0 && segments[0] != "" {
		entityType = segments[0]
	}
	if len(segments) > 1 && segments[1] != "" && segments[1] != "bulk" && !strings.HasPrefix(segments[1], "export") {
		entityID = segments[1]
	}
	return entityType, entityID
}
