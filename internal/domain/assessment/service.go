package assessment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/mindhaven/mindhaven/internal/scoring"
)

// ErrDuplicateType is returned when an assessment type slug is already taken.
var ErrDuplicateType = errors.New("assessment type already exists")

// ErrNoScoringConfig is returned when a preview is requested for an
// assessment with a missing or unparsable scoring configuration.
var ErrNoScoringConfig = errors.New("assessment has no valid scoring config")

// TxRunner executes fn atomically. The pg wiring passes db.WithTx; tests
// pass nil for a straight call.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo  Repository
	runTx TxRunner
}

func NewService(repo Repository, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{repo: repo, runTx: runTx}
}

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

func validateDefinition(a *Assessment) error {
	if l := len(strings.TrimSpace(a.Name)); l == 0 || l > 200 {
		return fmt.Errorf("name must be between 1 and 200 characters")
	}
	if l := len(a.Type); l == 0 || l > 100 || !slugRe.MatchString(a.Type) {
		return fmt.Errorf("type must be a lowercase slug of 1 to 100 characters")
	}
	if strings.TrimSpace(a.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if a.Description != nil && len(*a.Description) > 2000 {
		return fmt.Errorf("description must be at most 2000 characters")
	}
	if len(a.Questions) == 0 {
		return fmt.Errorf("at least one question is required")
	}
	for i, q := range a.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d: text is required", i+1)
		}
		if !ValidResponseTypes[q.ResponseType] {
			return fmt.Errorf("question %d: invalid response type: %s", i+1, q.ResponseType)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: at least two options are required", i+1)
		}
	}
	cfg, err := a.ParseScoringConfig()
	if err != nil {
		return err
	}
	if cfg.MaxScore <= 0 {
		return fmt.Errorf("scoring config maxScore must be greater than zero")
	}
	return nil
}

// Create validates and persists a questionnaire with its questions and
// options as one atomic unit.
func (s *Service) Create(ctx context.Context, a *Assessment) error {
	if err := validateDefinition(a); err != nil {
		return err
	}
	if existing, err := s.repo.GetByType(ctx, a.Type); err == nil && existing != nil {
		return ErrDuplicateType
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, a)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Assessment, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

// UpdateParams carries a partial update. Nil fields remain untouched; a
// non-nil Questions slice replaces the full question list.
type UpdateParams struct {
	Name          *string     `json:"name"`
	Type          *string     `json:"type"`
	Category      *string     `json:"category"`
	Description   *string     `json:"description"`
	ScoringConfig *string     `json:"scoring_config"`
	IsActive      *bool       `json:"is_active"`
	Questions     *[]Question `json:"questions"`
}

// Update applies a partial update. When the question list is supplied the
// existing questions and options are replaced wholesale in the same
// transaction as the field update.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Assessment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	typeChanged := params.Type != nil && *params.Type != a.Type

	if params.Name != nil {
		a.Name = *params.Name
	}
	if params.Type != nil {
		a.Type = *params.Type
	}
	if params.Category != nil {
		a.Category = *params.Category
	}
	if params.Description != nil {
		a.Description = params.Description
	}
	if params.ScoringConfig != nil {
		a.ScoringConfig = params.ScoringConfig
	}
	if params.IsActive != nil {
		a.IsActive = *params.IsActive
	}
	if params.Questions != nil {
		a.Questions = *params.Questions
	}

	if err := validateDefinition(a); err != nil {
		return nil, err
	}
	if typeChanged {
		if existing, err := s.repo.GetByType(ctx, a.Type); err == nil && existing != nil && existing.ID != a.ID {
			return nil, ErrDuplicateType
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		if params.Questions != nil {
			return s.repo.ReplaceQuestions(ctx, a.ID, a.Questions)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Duplicate deep-copies an assessment under a generated slug. The copy is
// always created inactive so it can be reviewed before publishing.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	src, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	copySlug := fmt.Sprintf("%s-copy-%s", src.Type, uuid.New().String()[:8])
	if existing, err := s.repo.GetByType(ctx, copySlug); err == nil && existing != nil {
		return nil, ErrDuplicateType
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	dup := &Assessment{
		Name:          src.Name + " (Copy)",
		Type:          copySlug,
		Category:      src.Category,
		Description:   src.Description,
		ScoringConfig: src.ScoringConfig,
		IsActive:      false,
	}
	for _, q := range src.Questions {
		nq := Question{
			Text:          q.Text,
			Order:         q.Order,
			ResponseType:  q.ResponseType,
			Domain:        q.Domain,
			ReverseScored: q.ReverseScored,
			Metadata:      q.Metadata,
		}
		for _, o := range q.Options {
			nq.Options = append(nq.Options, Option{
				Value: o.Value,
				Text:  o.Text,
				Order: o.Order,
			})
		}
		dup.Questions = append(dup.Questions, nq)
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, dup)
	})
	if err != nil {
		return nil, err
	}
	return dup, nil
}

// Deactivate soft-deletes an assessment by flipping it inactive.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.SetActive(ctx, []uuid.UUID{id}, false)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkSetActive publishes or unpublishes a batch of assessments and
// returns the number affected.
func (s *Service) BulkSetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("at least one id is required")
	}
	return s.repo.SetActive(ctx, ids, active)
}

// BulkDelete permanently removes a batch of assessments with their
// questions and options.
func (s *Service) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("at least one id is required")
	}
	var n int
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.repo.DeleteMany(ctx, ids)
		return err
	})
	return n, err
}

// Preview scores a hypothetical response set against an assessment's
// stored configuration without persisting anything.
func (s *Service) Preview(ctx context.Context, id uuid.UUID, responses map[string]string) (*PreviewResult, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := a.ParseScoringConfig()
	if err != nil {
		return nil, ErrNoScoringConfig
	}

	report := scoring.Score(a.ScoringQuestions(cfg), responses, cfg)

	return &PreviewResult{
		AssessmentName:  a.Name,
		AssessmentType:  a.Type,
		TotalScore:      report.TotalScore,
		NormalizedScore: report.NormalizedScore,
		Interpretation:  report.Interpretation,
		DomainScores:    report.DomainScores,
	}, nil
}
