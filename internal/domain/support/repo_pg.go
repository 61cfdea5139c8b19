package support

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// Tickets

type ticketRepoPG struct{ pool *pgxpool.Pool }

func NewTicketRepoPG(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepoPG{pool: pool}
}

const ticketCols = `id, submitter_email, subject, body, status, priority,
	assignee_id, resolved_at, created_at, updated_at`

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.SubmitterEmail, &t.Subject, &t.Body, &t.Status,
		&t.Priority, &t.AssigneeID, &t.ResolvedAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return &t, err
}

func (r *ticketRepoPG) Create(ctx context.Context, t *Ticket) error {
	t.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO support_ticket (id, submitter_email, subject, body, status, priority, assignee_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.SubmitterEmail, t.Subject, t.Body, t.Status, t.Priority, t.AssigneeID)
	return err
}

func (r *ticketRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+ticketCols+` FROM support_ticket WHERE id = $1`, id))
}

func (r *ticketRepoPG) Update(ctx context.Context, t *Ticket) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE support_ticket SET subject=$2, body=$3, status=$4, priority=$5,
			assignee_id=$6, resolved_at=$7, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Subject, t.Body, t.Status, t.Priority, t.AssigneeID, t.ResolvedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (r *ticketRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Ticket, int, error) {
	query := `SELECT ` + ticketCols + ` FROM support_ticket WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM support_ticket WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["priority"]; ok {
		query += fmt.Sprintf(` AND priority = $%d`, idx)
		countQuery += fmt.Sprintf(` AND priority = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["assignee"]; ok {
		query += fmt.Sprintf(` AND assignee_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND assignee_id = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

// Crisis resources

type resourceRepoPG struct{ pool *pgxpool.Pool }

func NewResourceRepoPG(pool *pgxpool.Pool) ResourceRepository {
	return &resourceRepoPG{pool: pool}
}

const resourceCols = `id, name, region, phone, url, available_24x7, sort_order,
	created_at, updated_at`

func scanResource(row pgx.Row) (*CrisisResource, error) {
	var cr CrisisResource
	err := row.Scan(&cr.ID, &cr.Name, &cr.Region, &cr.Phone, &cr.URL,
		&cr.Available24x7, &cr.SortOrder, &cr.CreatedAt, &cr.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	return &cr, err
}

func (r *resourceRepoPG) Create(ctx context.Context, cr *CrisisResource) error {
	cr.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO crisis_resource (id, name, region, phone, url, available_24x7, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		cr.ID, cr.Name, cr.Region, cr.Phone, cr.URL, cr.Available24x7, cr.SortOrder)
	return err
}

func (r *resourceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CrisisResource, error) {
	return scanResource(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+resourceCols+` FROM crisis_resource WHERE id = $1`, id))
}

func (r *resourceRepoPG) Update(ctx context.Context, cr *CrisisResource) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE crisis_resource SET name=$2, region=$3, phone=$4, url=$5,
			available_24x7=$6, sort_order=$7, updated_at=NOW()
		WHERE id = $1`,
		cr.ID, cr.Name, cr.Region, cr.Phone, cr.URL, cr.Available24x7, cr.SortOrder)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResourceNotFound
	}
	return nil
}

func (r *resourceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM crisis_resource WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResourceNotFound
	}
	return nil
}

func (r *resourceRepoPG) List(ctx context.Context, region string, limit, offset int) ([]*CrisisResource, int, error) {
	query := `SELECT ` + resourceCols + ` FROM crisis_resource WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM crisis_resource WHERE 1=1`
	var args []interface{}
	idx := 1

	if region != "" {
		query += fmt.Sprintf(` AND region = $%d`, idx)
		countQuery += fmt.Sprintf(` AND region = $%d`, idx)
		args = append(args, region)
		idx++
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY sort_order ASC, name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*CrisisResource
	for rows.Next() {
		cr, err := scanResource(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, cr)
	}
	return items, total, rows.Err()
}

// FAQs

type faqRepoPG struct{ pool *pgxpool.Pool }

func NewFAQRepoPG(pool *pgxpool.Pool) FAQRepository {
	return &faqRepoPG{pool: pool}
}

const faqCols = `id, question, answer, category, sort_order, is_published,
	created_at, updated_at`

func scanFAQ(row pgx.Row) (*FAQ, error) {
	var f FAQ
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.Category, &f.SortOrder,
		&f.IsPublished, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFAQNotFound
	}
	return &f, err
}

func (r *faqRepoPG) Create(ctx context.Context, f *FAQ) error {
	f.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO faq (id, question, answer, category, sort_order, is_published)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		f.ID, f.Question, f.Answer, f.Category, f.SortOrder, f.IsPublished)
	return err
}

func (r *faqRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*FAQ, error) {
	return scanFAQ(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+faqCols+` FROM faq WHERE id = $1`, id))
}

func (r *faqRepoPG) Update(ctx context.Context, f *FAQ) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE faq SET question=$2, answer=$3, category=$4, sort_order=$5,
			is_published=$6, updated_at=NOW()
		WHERE id = $1`,
		f.ID, f.Question, f.Answer, f.Category, f.SortOrder, f.IsPublished)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFAQNotFound
	}
	return nil
}

func (r *faqRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM faq WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFAQNotFound
	}
	return nil
}

func (r *faqRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*FAQ, int, error) {
	query := `SELECT ` + faqCols + ` FROM faq WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM faq WHERE 1=1`
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

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY sort_order ASC, created_at ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*FAQ
	for rows.Next() {
		f, err := scanFAQ(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}
