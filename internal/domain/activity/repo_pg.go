package activity

import (
	"context"
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

const entryCols = `id, recorded_at, actor_id, actor_email, action, entity_type,
	entity_id, detail, ip_address, user_agent, status_code`

func scanEntry(rows pgx.Rows) (*Entry, error) {
	var e Entry
	err := rows.Scan(&e.ID, &e.Timestamp, &e.ActorID, &e.ActorEmail, &e.Action,
		&e.EntityType, &e.EntityID, &e.Detail, &e.IPAddress, &e.UserAgent,
		&e.StatusCode)
	return &e, err
}

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO activity_entry (id, recorded_at, actor_id, actor_email, action,
			entity_type, entity_id, detail, ip_address, user_agent, status_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.Timestamp, e.ActorID, e.ActorEmail, e.Action,
		e.EntityType, e.EntityID, e.Detail, e.IPAddress, e.UserAgent, e.StatusCode)
	return err
}

func buildFilter(params SearchParams) (string, []interface{}) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	add := func(clause string, val interface{}) {
		where += fmt.Sprintf(clause, idx)
		args = append(args, val)
		idx++
	}

	if params.ActorID != "" {
		add(` AND actor_id = $%d`, params.ActorID)
	}
	if params.ActorEmail != "" {
		add(` AND actor_email = $%d`, params.ActorEmail)
	}
	if params.Action != "" {
		add(` AND action = $%d`, params.Action)
	}
	if params.EntityType != "" {
		add(` AND entity_type = $%d`, params.EntityType)
	}
	if !params.From.IsZero() {
		add(` AND recorded_at >= $%d`, params.From)
	}
	if !params.To.IsZero() {
		add(` AND recorded_at <= $%d`, params.To)
	}
	return where, args
}

func orderClause(sortOrder string) string {
	if sortOrder == "asc" {
		return ` ORDER BY recorded_at ASC`
	}
	return ` ORDER BY recorded_at DESC`
}

func (r *repoPG) Search(ctx context.Context, params SearchParams) ([]*Entry, int, error) {
	where, args := buildFilter(params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_entry`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + entryCols + ` FROM activity_entry` + where + orderClause(params.SortOrder)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) SearchAll(ctx context.Context, params SearchParams) ([]*Entry, error) {
	where, args := buildFilter(params)
	query := `SELECT ` + entryCols + ` FROM activity_entry` + where + orderClause(params.SortOrder)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
