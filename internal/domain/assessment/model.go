package assessment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mindhaven/mindhaven/internal/scoring"
)

// Assessment maps to the assessment table. ScoringConfig holds the raw
// JSON configuration string as stored; use ParseScoringConfig for the
// deserialized form.
type Assessment struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Type          string     `db:"type" json:"type"`
	Category      string     `db:"category" json:"category"`
	Description   *string    `db:"description" json:"description,omitempty"`
	ScoringConfig *string    `db:"scoring_config" json:"scoring_config,omitempty"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	Questions     []Question `json:"questions,omitempty"`
}

// Question maps to the assessment_question table.
type Question struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AssessmentID  uuid.UUID `db:"assessment_id" json:"assessment_id"`
	Text          string    `db:"text" json:"text"`
	Order         int       `db:"display_order" json:"order"`
	ResponseType  string    `db:"response_type" json:"response_type"`
	Domain        *string   `db:"domain" json:"domain,omitempty"`
	ReverseScored bool      `db:"reverse_scored" json:"reverse_scored"`
	Metadata      *string   `db:"metadata" json:"metadata,omitempty"`
	Options       []Option  `json:"options,omitempty"`
}

// Option maps to the assessment_option table.
type Option struct {
	ID         uuid.UUID `db:"id" json:"id"`
	QuestionID uuid.UUID `db:"question_id" json:"question_id"`
	Value      float64   `db:"value" json:"value"`
	Text       string    `db:"text" json:"text"`
	Order      int       `db:"display_order" json:"order"`
}

// ValidResponseTypes enumerates the supported question response types.
var ValidResponseTypes = map[string]bool{
	"likert-4-point":  true,
	"likert-5-point":  true,
	"binary":          true,
	"multiple-choice": true,
}

// ParseScoringConfig deserializes the stored scoring configuration.
func (a *Assessment) ParseScoringConfig() (scoring.Config, error) {
	var cfg scoring.Config
	if a.ScoringConfig == nil || *a.ScoringConfig == "" {
		return cfg, fmt.Errorf("assessment %s has no scoring config", a.ID)
	}
	if err := json.Unmarshal([]byte(*a.ScoringConfig), &cfg); err != nil {
		return cfg, fmt.Errorf("invalid scoring config: %w", err)
	}
	return cfg, nil
}

// ScoringQuestions converts the questionnaire into the scoring engine's
// input form, folding the config-level reverse-scored ID set into the
// per-question flags so legacy configurations score identically.
func (a *Assessment) ScoringQuestions(cfg scoring.Config) []scoring.Question {
	questions := make([]scoring.Question, 0, len(a.Questions))
	for _, q := range a.Questions {
		sq := scoring.Question{
			ID:            q.ID.String(),
			Text:          q.Text,
			Order:         q.Order,
			ResponseType:  q.ResponseType,
			ReverseScored: q.ReverseScored,
		}
		if q.Domain != nil {
			sq.Domain = *q.Domain
		}
		for _, o := range q.Options {
			sq.Options = append(sq.Options, scoring.Option{
				ID:    o.ID.String(),
				Value: o.Value,
				Text:  o.Text,
				Order: o.Order,
			})
		}
		questions = append(questions, sq)
	}
	scoring.ApplyReverseSet(questions, cfg.ReverseScored)
	return questions
}

// PreviewResult is the scored outcome returned by the preview endpoint.
type PreviewResult struct {
	AssessmentName  string                         `json:"assessment_name"`
	AssessmentType  string                         `json:"assessment_type"`
	TotalScore      float64                        `json:"total_score"`
	NormalizedScore float64                        `json:"normalized_score"`
	Interpretation  string                         `json:"interpretation"`
	DomainScores    map[string]scoring.DomainScore `json:"domain_scores,omitempty"`
}
