package practice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindhaven/mindhaven/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const practiceCols = `id, title, slug, category, description, duration_minutes,
	difficulty, media_url, is_published, created_at, updated_at`

func scanPractice(row pgx.Row) (*Practice, error) {
	var p Practice
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Category, &p.Description,
		&p.DurationMinutes, &p.Difficulty, &p.MediaURL, &p.IsPublished,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Practice) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO practice (id, title, slug, category, description, duration_minutes,
			difficulty, media_url, is_published)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Title, p.Slug, p.Category, p.Description, p.DurationMinutes,
		p.Difficulty, p.MediaURL, p.IsPublished)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practice, error) {
	return scanPractice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practiceCols+` FROM practice WHERE id = $1`, id))
}

func (r *repoPG) GetBySlug(ctx context.Context, slug string) (*Practice, error) {
	return scanPractice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practiceCols+` FROM practice WHERE slug = $1`, slug))
}

func (r *repoPG) Update(ctx context.Context, p *Practice) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE practice SET title=$2, slug=$3, category=$4, description=$5,
			duration_minutes=$6, difficulty=$7, media_url=$8, is_published=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Title, p.Slug, p.Category, p.Description,
		p.DurationMinutes, p.Difficulty, p.MediaURL, p.IsPublished)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM practice WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Practice, int, error) {
	query := `SELECT ` + practiceCols + ` FROM practice WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM practice WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["category"]; ok {
		query += fmt.Sprintf(` AND category = $%d`, idx)
		countQuery += fmt.Sprintf(` AND category = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["published"]; ok {
		query += fmt.Sprintf(` AND is_published = $%d`, idx)
		countQuery += fmt.Sprintf(` AND is_published = $%d`, idx)
		args = append(args, p == "true")
		idx++
	}
	if p, ok := params["difficulty"]; ok {
		query += fmt.Sprintf(` AND difficulty = $%d`, idx)
		countQuery += fmt.Sprintf(` AND difficulty = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Practice
	for rows.Next() {
		p, err := scanPractice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
