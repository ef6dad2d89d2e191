package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/insights"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

const (
	// DefaultHintTimeout bounds a single hint provider call.
	DefaultHintTimeout = 20 * time.Second

	hintService = "score hint"

	fallbackRecommendation = "Analysis completed. Review your financial patterns."
	defaultSummary         = "Financial analysis completed successfully."
)

// ErrMalformedHint is recorded when a provider answers with an unusable score.
var ErrMalformedHint = errors.New("hint expected score is not a finite value in [300, 850]")

// Result is the outcome of scoring one statement.
type Result struct {
	BaseScore  int `json:"baseScore"`
	FinalScore int `json:"score"`
	// ExternalScoreHint is the provider's score when it was usable.
	ExternalScoreHint *int     `json:"aiExpectedScore"`
	Source            Source   `json:"scoreSource"`
	Narrative         string   `json:"narrative"`
	Recommendations   []string `json:"recommendations"`
	Summary           string   `json:"summary"`

	// HintErr is the recovered provider failure, if any.
	HintErr     error         `json:"-"`
	HintLatency time.Duration `json:"-"`
}

// Engine computes credit scores. The hint provider is optional.
type Engine struct {
	provider HintProvider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewEngine creates a score engine. A nil provider disables hints, and a
// non-positive timeout selects DefaultHintTimeout.
func NewEngine(provider HintProvider, timeout time.Duration, logger *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultHintTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: provider, timeout: timeout, logger: logger}
}

// Score computes the base score of fs and blends it with a provider hint.
// Provider failures never fail scoring: the result falls back to the rule
// based score and a generic narrative.
func (e *Engine) Score(ctx context.Context, fs *insights.FeatureSet, parsed *statement.ParsedStatement) *Result {
	base := BaseScore(fs)
	result := &Result{BaseScore: base}

	req := HintRequest{Stats: NewSummaryStats(fs, parsed, base)}
	if parsed != nil {
		req.SampleText = parsed.SampleText
	}

	hint := e.hint(ctx, req, result)

	var hintValue *float64
	if hint != nil {
		if ValidHint(hint.ExpectedScore) {
			v := hint.ExpectedScore
			hintValue = &v
			rounded := int(math.Round(v))
			result.ExternalScoreHint = &rounded
		} else {
			result.HintErr = &statement.ExternalServiceError{Service: hintService, Err: ErrMalformedHint}
			e.logger.Warn("discarding malformed score hint",
				slog.Float64("expected_score", hint.ExpectedScore))
		}
	}

	result.FinalScore, result.Source = Blend(base, hintValue)
	result.Narrative, result.Recommendations = narrative(hint, fmt.Sprintf("Financial analysis completed. Rule-based score: %d.", base))
	result.Summary = Summarize(result.Narrative, result.Recommendations)

	e.logger.Info("statement scored",
		slog.Int("base_score", base),
		slog.Int("final_score", result.FinalScore),
		slog.String("source", string(result.Source)))
	return result
}

// Narrate asks the provider for a narrative over free text. It is used for
// documents without a transaction table; no score is produced.
func (e *Engine) Narrate(ctx context.Context, text string) *Result {
	result := &Result{Source: SourceRuleBased}
	hint := e.hint(ctx, HintRequest{SampleText: text}, result)
	result.Narrative, result.Recommendations = narrative(hint, "Financial analysis completed.")
	result.Summary = Summarize(result.Narrative, result.Recommendations)
	return result
}

// hint calls the provider under the engine timeout. Failures are recorded on
// result and reported as a nil hint.
func (e *Engine) hint(ctx context.Context, req HintRequest, result *Result) *Hint {
	if e.provider == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		hint *Hint
		err  error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		h, err := e.provider.ScoreHint(ctx, req)
		done <- outcome{h, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}
	result.HintLatency = time.Since(start)

	if out.err == nil && out.hint == nil {
		out.err = ErrMalformedHint
	}
	if out.err != nil {
		result.HintErr = &statement.ExternalServiceError{Service: hintService, Err: out.err}
		e.logger.Warn("score hint unavailable, using rule based score",
			slog.Any("error", out.err),
			slog.Duration("elapsed", result.HintLatency))
		return nil
	}
	return out.hint
}

func narrative(hint *Hint, fallback string) (string, []string) {
	if hint == nil {
		return fallback, []string{fallbackRecommendation}
	}

	text := strings.TrimSpace(hint.Narrative)
	if text == "" {
		text = fallback
	}
	var recs []string
	for _, r := range hint.Recommendations {
		if r = strings.TrimSpace(r); r != "" {
			recs = append(recs, r)
		}
	}
	if len(recs) == 0 {
		recs = []string{fallbackRecommendation}
	}
	return text, recs
}

// Summarize joins the narrative and recommendations into one paragraph.
func Summarize(narrative string, recommendations []string) string {
	parts := make([]string, 0, len(recommendations)+1)
	if narrative != "" {
		parts = append(parts, narrative)
	}
	for _, r := range recommendations {
		if r != "" {
			parts = append(parts, r)
		}
	}
	if len(parts) == 0 {
		return defaultSummary
	}
	return strings.Join(parts, " ")
}
