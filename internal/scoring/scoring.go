// Package scoring computes assessment score reports from a questionnaire
// definition and a set of raw responses. It is a pure leaf package: no I/O,
// no state, safe to call concurrently.
package scoring

import (
	"math"
	"sort"
	"strconv"
)

// Question is one questionnaire item with its resolved response options.
type Question struct {
	ID            string
	Text          string
	Order         int
	ResponseType  string
	Domain        string
	ReverseScored bool
	Options       []Option
}

// Option is one selectable answer for a question.
type Option struct {
	ID    string
	Value float64
	Text  string
	Order int
}

// Band maps a score ceiling to a qualitative label. Bands are claimed
// lowest-max first: a band covers every total <= Max not already claimed
// by a lower-max band.
type Band struct {
	Max   float64 `json:"max"`
	Label string  `json:"label"`
	Color string  `json:"color,omitempty"`
}

// Domain defines an optional sub-scale scored independently over a subset
// of the questionnaire's questions.
type Domain struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	QuestionIDs []string `json:"questionIds"`
	MinScore    float64  `json:"minScore"`
	MaxScore    float64  `json:"maxScore"`
	Bands       []Band   `json:"interpretationBands"`
}

// Config is a questionnaire's deserialized scoring configuration.
type Config struct {
	MinScore       float64  `json:"minScore"`
	MaxScore       float64  `json:"maxScore"`
	Bands          []Band   `json:"interpretationBands"`
	ReverseScored  []string `json:"reverseScored,omitempty"`
	Domains        []Domain `json:"domains,omitempty"`
	HigherIsBetter bool     `json:"higherIsBetter,omitempty"`
}

// DomainScore is the sub-scale result for one domain.
type DomainScore struct {
	Score          float64 `json:"score"`
	Normalized     float64 `json:"normalized"`
	Interpretation string  `json:"interpretation"`
}

// Report is the result of scoring one response set.
type Report struct {
	TotalScore      float64                `json:"total_score"`
	NormalizedScore float64                `json:"normalized_score"`
	Interpretation  string                 `json:"interpretation"`
	DomainScores    map[string]DomainScore `json:"domain_scores,omitempty"`
}

// UnknownInterpretation is returned when a total falls outside every
// configured band, or when no bands are configured at all.
const UnknownInterpretation = "Unknown"

// Score computes the total, normalized score, interpretation label, and
// optional per-domain sub-scores for a set of raw responses.
//
// Responses map question IDs to the raw value the respondent selected,
// compared against option values under string coercion. Unanswered
// questions, unknown question IDs, and values that match no option all
// contribute zero; scoring never fails.
//
// The per-question ReverseScored flag is the authoritative reverse-scoring
// source. Callers holding a legacy config-level ID set should fold it into
// the question flags first (see ApplyReverseSet).
func Score(questions []Question, responses map[string]string, cfg Config) Report {
	byID := make(map[string]*Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	total := sumContributions(byID, responses, nil)

	report := Report{
		TotalScore:      total,
		NormalizedScore: normalize(total, cfg.MaxScore),
		Interpretation:  interpret(total, cfg.Bands),
	}

	if len(cfg.Domains) > 0 {
		report.DomainScores = make(map[string]DomainScore, len(cfg.Domains))
		for _, d := range cfg.Domains {
			score := sumContributions(byID, responses, d.QuestionIDs)
			report.DomainScores[d.ID] = DomainScore{
				Score:          score,
				Normalized:     normalize(score, d.MaxScore),
				Interpretation: interpret(score, d.Bands),
			}
		}
	}

	return report
}

// ApplyReverseSet folds a config-level reverse-scored question ID set into
// the per-question flags. Stored configurations predating the per-question
// flag carry only the ID set; after this call the two representations score
// identically.
func ApplyReverseSet(questions []Question, ids []string) {
	if len(ids) == 0 {
		return
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for i := range questions {
		if set[questions[i].ID] {
			questions[i].ReverseScored = true
		}
	}
}

// sumContributions accumulates per-question contributions for the given
// scope. A nil scope means all responses; otherwise only the listed
// question IDs participate.
func sumContributions(byID map[string]*Question, responses map[string]string, scope []string) float64 {
	var total float64
	if scope == nil {
		for qid, raw := range responses {
			total += contribution(byID[qid], raw)
		}
		return total
	}
	for _, qid := range scope {
		raw, ok := responses[qid]
		if !ok {
			continue
		}
		total += contribution(byID[qid], raw)
	}
	return total
}

// contribution resolves one raw response against a question's options.
// Unknown questions and unmatched values contribute zero.
func contribution(q *Question, raw string) float64 {
	if q == nil {
		return 0
	}
	opt := matchOption(q.Options, raw)
	if opt == nil {
		return 0
	}
	score := opt.Value
	if q.ReverseScored {
		// Recompute the per-question maximum rather than trusting a cached
		// bound, so non-contiguous or unsorted option values invert
		// correctly.
		score = maxOptionValue(q.Options) - score
	}
	return score
}

// matchOption finds the option whose value equals the raw response under
// string coercion. Option values are formatted both as their shortest
// decimal form and, for whole numbers, as integers, so "2", "2.0" and a
// stored value of 2 all line up across the JSON boundary.
func matchOption(options []Option, raw string) *Option {
	for i := range options {
		if coerce(options[i].Value) == raw {
			return &options[i]
		}
	}
	// Second pass: parse the raw value numerically, so "2.0" still matches
	// an option valued 2.
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		for i := range options {
			if options[i].Value == f {
				return &options[i]
			}
		}
	}
	return nil
}

func coerce(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func maxOptionValue(options []Option) float64 {
	max := math.Inf(-1)
	for _, o := range options {
		if o.Value > max {
			max = o.Value
		}
	}
	if math.IsInf(max, -1) {
		return 0
	}
	return max
}

// normalize rescales a total to 0-100 relative to maxScore. A non-positive
// maxScore yields 0 rather than an error; degenerate configs preview as
// zero instead of failing.
func normalize(total, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(total / maxScore * 100)
}

// interpret returns the label of the lowest-max band whose max covers the
// total. Bands are re-sorted ascending before scanning, so overlapping or
// out-of-order input still classifies deterministically.
func interpret(total float64, bands []Band) string {
	if len(bands) == 0 {
		return UnknownInterpretation
	}
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Max < sorted[j].Max })
	for _, b := range sorted {
		if total <= b.Max {
			return b.Label
		}
	}
	return UnknownInterpretation
}
