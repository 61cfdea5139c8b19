package analytics

import (
	"context"
	"time"
)

// CountReader reports aggregate counts for one entity family. Each domain
// package wires its own implementation so the dashboard never touches
// domain tables directly.
type CountReader interface {
	Counts(ctx context.Context) (total int, active int, err error)
}

// CategoryReader breaks an entity family down by category.
type CategoryReader interface {
	CountsByCategory(ctx context.Context) (map[string]int, error)
}

// TicketReader reports support queue state.
type TicketReader interface {
	CountsByStatus(ctx context.Context) (map[string]int, error)
}

// ActivityReader reports recent activity volume.
type ActivityReader interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// EntitySummary is one dashboard card.
type EntitySummary struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// Dashboard is the full aggregate payload.
type Dashboard struct {
	GeneratedAt           time.Time      `json:"generated_at"`
	Assessments           EntitySummary  `json:"assessments"`
	AssessmentsByCategory map[string]int `json:"assessments_by_category"`
	Practices             EntitySummary  `json:"practices"`
	Articles              EntitySummary  `json:"articles"`
	Therapists            EntitySummary  `json:"therapists"`
	TicketsByStatus       map[string]int `json:"tickets_by_status"`
	ActivityLast24h       int            `json:"activity_last_24h"`
	ActivityLast7d        int            `json:"activity_last_7d"`
}

type Service struct {
	assessments      CountReader
	assessmentsByCat CategoryReader
	practices        CountReader
	articles         CountReader
	therapists       CountReader
	tickets          TicketReader
	activity         ActivityReader
}

func NewService(assessments CountReader, byCategory CategoryReader,
	practices, articles, therapists CountReader,
	tickets TicketReader, activity ActivityReader) *Service {
	return &Service{
		assessments:      assessments,
		assessmentsByCat: byCategory,
		practices:        practices,
		articles:         articles,
		therapists:       therapists,
		tickets:          tickets,
		activity:         activity,
	}
}

func summarize(ctx context.Context, r CountReader) (EntitySummary, error) {
	total, active, err := r.Counts(ctx)
	if err != nil {
		return EntitySummary{}, err
	}
	return EntitySummary{Total: total, Active: active, Inactive: total - active}, nil
}

// BuildDashboard assembles the aggregate payload. A failing reader fails
// the whole dashboard; partial numbers would be misleading.
func (s *Service) BuildDashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{GeneratedAt: time.Now().UTC()}
	var err error

	if d.Assessments, err = summarize(ctx, s.assessments); err != nil {
		return nil, err
	}
	if d.AssessmentsByCategory, err = s.assessmentsByCat.CountsByCategory(ctx); err != nil {
		return nil, err
	}
	if d.Practices, err = summarize(ctx, s.practices); err != nil {
		return nil, err
	}
	if d.Articles, err = summarize(ctx, s.articles); err != nil {
		return nil, err
	}
	if d.Therapists, err = summarize(ctx, s.therapists); err != nil {
		return nil, err
	}
	if d.TicketsByStatus, err = s.tickets.CountsByStatus(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if d.ActivityLast24h, err = s.activity.CountSince(ctx, now.Add(-24*time.Hour)); err != nil {
		return nil, err
	}
	if d.ActivityLast7d, err = s.activity.CountSince(ctx, now.Add(-7*24*time.Hour)); err != nil {
		return nil, err
	}
	return d, nil
}
