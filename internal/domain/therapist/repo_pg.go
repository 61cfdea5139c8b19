package therapist

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

const therapistCols = `id, full_name, credentials, specialties, email, phone,
	bio, accepting_clients, is_active, created_at, updated_at`

func scanTherapist(row pgx.Row) (*Therapist, error) {
	var t Therapist
	err := row.Scan(&t.ID, &t.FullName, &t.Credentials, &t.Specialties,
		&t.Email, &t.Phone, &t.Bio, &t.AcceptingClients, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Therapist) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO therapist (id, full_name, credentials, specialties, email, phone,
			bio, accepting_clients, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.FullName, t.Credentials, t.Specialties, t.Email, t.Phone,
		t.Bio, t.AcceptingClients, t.IsActive)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	return scanTherapist(r.conn(ctx).QueryRow(ctx,
		`SELECT `+therapistCols+` FROM therapist WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Therapist, error) {
	return scanTherapist(r.conn(ctx).QueryRow(ctx,
		`SELECT `+therapistCols+` FROM therapist WHERE email = $1`, email))
}

func (r *repoPG) Update(ctx context.Context, t *Therapist) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE therapist SET full_name=$2, credentials=$3, specialties=$4, email=$5,
			phone=$6, bio=$7, accepting_clients=$8, is_active=$9, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.FullName, t.Credentials, t.Specialties, t.Email,
		t.Phone, t.Bio, t.AcceptingClients, t.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM therapist WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Therapist, int, error) {
	query := `SELECT ` + therapistCols + ` FROM therapist WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM therapist WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["specialty"]; ok {
		query += fmt.Sprintf(` AND $%d = ANY(specialties)`, idx)
		countQuery += fmt.Sprintf(` AND $%d = ANY(specialties)`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["accepting"]; ok {
		query += fmt.Sprintf(` AND accepting_clients = $%d`, idx)
		countQuery += fmt.Sprintf(` AND accepting_clients = $%d`, idx)
		args = append(args, p == "true")
		idx++
	}
	if p, ok := params["active"]; ok {
		query += fmt.Sprintf(` AND is_active = $%d`, idx)
		countQuery += fmt.Sprintf(` AND is_active = $%d`, idx)
		args = append(args, p == "true")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY full_name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Therapist
	for rows.Next() {
		t, err := scanTherapist(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
