package content

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

const articleCols = `id, title, slug, body, tags, author_id, status,
	published_at, created_at, updated_at`

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Body, &a.Tags, &a.AuthorID,
		&a.Status, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Article) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO article (id, title, slug, body, tags, author_id, status, published_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.Title, a.Slug, a.Body, a.Tags, a.AuthorID, a.Status, a.PublishedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	return scanArticle(r.conn(ctx).QueryRow(ctx,
		`SELECT `+articleCols+` FROM article WHERE id = $1`, id))
}

func (r *repoPG) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	return scanArticle(r.conn(ctx).QueryRow(ctx,
		`SELECT `+articleCols+` FROM article WHERE slug = $1`, slug))
}

func (r *repoPG) Update(ctx context.Context, a *Article) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE article SET title=$2, slug=$3, body=$4, tags=$5, author_id=$6,
			status=$7, published_at=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Title, a.Slug, a.Body, a.Tags, a.AuthorID, a.Status, a.PublishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM article WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetStatus(ctx context.Context, ids []uuid.UUID, status string) (int, error) {
	// First transition to published stamps published_at; later republishes
	// keep the original timestamp.
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE article SET status=$2,
			published_at = CASE WHEN $2 = 'published' THEN COALESCE(published_at, NOW()) ELSE published_at END,
			updated_at=NOW()
		WHERE id = ANY($1)`, ids, status)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Article, int, error) {
	query := `SELECT ` + articleCols + ` FROM article WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM article WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["tag"]; ok {
		query += fmt.Sprintf(` AND $%d = ANY(tags)`, idx)
		countQuery += fmt.Sprintf(` AND $%d = ANY(tags)`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["author"]; ok {
		query += fmt.Sprintf(` AND author_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND author_id = $%d`, idx)
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

	var items []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
