package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pg readers back the dashboard with single-aggregate queries. They are
// deliberately tiny; each maps one reader interface to one table.

type pgCountReader struct {
	pool       *pgxpool.Pool
	table      string
	activeExpr string
}

// NewAssessmentCounts counts assessment rows, active by is_active.
func NewAssessmentCounts(pool *pgxpool.Pool) CountReader {
	return &pgCountReader{pool: pool, table: "assessment", activeExpr: "is_active"}
}

// NewPracticeCounts counts practice rows, active by is_published.
func NewPracticeCounts(pool *pgxpool.Pool) CountReader {
	return &pgCountReader{pool: pool, table: "practice", activeExpr: "is_published"}
}

// NewArticleCounts counts article rows, active meaning published.
func NewArticleCounts(pool *pgxpool.Pool) CountReader {
	return &pgCountReader{pool: pool, table: "article", activeExpr: "status = 'published'"}
}

// NewTherapistCounts counts therapist rows, active by is_active.
func NewTherapistCounts(pool *pgxpool.Pool) CountReader {
	return &pgCountReader{pool: pool, table: "therapist", activeExpr: "is_active"}
}

func (r *pgCountReader) Counts(ctx context.Context) (int, int, error) {
	var total, active int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE `+r.activeExpr+`) FROM `+r.table).
		Scan(&total, &active)
	return total, active, err
}

type pgCategoryReader struct{ pool *pgxpool.Pool }

func NewAssessmentCategories(pool *pgxpool.Pool) CategoryReader {
	return &pgCategoryReader{pool: pool}
}

func (r *pgCategoryReader) CountsByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*) FROM assessment GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		out[category] = n
	}
	return out, rows.Err()
}

type pgTicketReader struct{ pool *pgxpool.Pool }

func NewTicketCounts(pool *pgxpool.Pool) TicketReader {
	return &pgTicketReader{pool: pool}
}

func (r *pgTicketReader) CountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM support_ticket GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

type pgActivityReader struct{ pool *pgxpool.Pool }

func NewActivityCounts(pool *pgxpool.Pool) ActivityReader {
	return &pgActivityReader{pool: pool}
}

func (r *pgActivityReader) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_entry WHERE recorded_at >= $1`, since).Scan(&n)
	return n, err
}
