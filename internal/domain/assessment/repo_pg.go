package assessment

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

const assessmentCols = `id, name, type, category, description, scoring_config,
	is_active, created_at, updated_at`

func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Category, &a.Description,
		&a.ScoringConfig, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Assessment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assessment (id, name, type, category, description, scoring_config, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.Name, a.Type, a.Category, a.Description, a.ScoringConfig, a.IsActive)
	if err != nil {
		return err
	}
	return r.insertQuestions(ctx, a.ID, a.Questions)
}

func (r *repoPG) insertQuestions(ctx context.Context, assessmentID uuid.UUID, questions []Question) error {
	for i := range questions {
		q := &questions[i]
		q.ID = uuid.New()
		q.AssessmentID = assessmentID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO assessment_question (id, assessment_id, text, display_order,
				response_type, domain, reverse_scored, metadata)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			q.ID, q.AssessmentID, q.Text, q.Order,
			q.ResponseType, q.Domain, q.ReverseScored, q.Metadata)
		if err != nil {
			return err
		}
		for j := range q.Options {
			o := &q.Options[j]
			o.ID = uuid.New()
			o.QuestionID = q.ID
			_, err := r.conn(ctx).Exec(ctx, `
				INSERT INTO assessment_option (id, question_id, value, text, display_order)
				VALUES ($1,$2,$3,$4,$5)`,
				o.ID, o.QuestionID, o.Value, o.Text, o.Order)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	a, err := scanAssessment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+assessmentCols+` FROM assessment WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadQuestions(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) GetByType(ctx context.Context, slug string) (*Assessment, error) {
	return scanAssessment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+assessmentCols+` FROM assessment WHERE type = $1`, slug))
}

func (r *repoPG) loadQuestions(ctx context.Context, a *Assessment) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, assessment_id, text, display_order, response_type, domain, reverse_scored, metadata
		FROM assessment_question WHERE assessment_id = $1 ORDER BY display_order`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.Text, &q.Order,
			&q.ResponseType, &q.Domain, &q.ReverseScored, &q.Metadata); err != nil {
			return err
		}
		byID[q.ID] = len(a.Questions)
		a.Questions = append(a.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(a.Questions) == 0 {
		return nil
	}

	optRows, err := r.conn(ctx).Query(ctx, `
		SELECT o.id, o.question_id, o.value, o.text, o.display_order
		FROM assessment_option o
		JOIN assessment_question q ON q.id = o.question_id
		WHERE q.assessment_id = $1
		ORDER BY o.display_order`, a.ID)
	if err != nil {
		return err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Value, &o.Text, &o.Order); err != nil {
			return err
		}
		if idx, ok := byID[o.QuestionID]; ok {
			a.Questions[idx].Options = append(a.Questions[idx].Options, o)
		}
	}
	return optRows.Err()
}

func (r *repoPG) Update(ctx context.Context, a *Assessment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE assessment SET name=$2, type=$3, category=$4, description=$5,
			scoring_config=$6, is_active=$7, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Name, a.Type, a.Category, a.Description, a.ScoringConfig, a.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ReplaceQuestions(ctx context.Context, assessmentID uuid.UUID, questions []Question) error {
	// Options go with their questions via ON DELETE CASCADE.
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM assessment_question WHERE assessment_id = $1`, assessmentID)
	if err != nil {
		return err
	}
	return r.insertQuestions(ctx, assessmentID, questions)
}

func (r *repoPG) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE assessment SET is_active=$2, updated_at=NOW() WHERE id = ANY($1)`, ids, active)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM assessment WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Assessment, int, error) {
	query := `SELECT ` + assessmentCols + ` FROM assessment WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM assessment WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["category"]; ok {
		query += fmt.Sprintf(` AND category = $%d`, idx)
		countQuery += fmt.Sprintf(` AND category = $%d`, idx)
		args = append(args, p)
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

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
