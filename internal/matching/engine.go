// Package matching is the scoring core: it turns an unstructured posting and
// a resume profile into a calibrated 0-100 match score with a categorical
// label, blending a lexical skill signal, an embedding similarity and an
// optional LLM judgment.
package matching

import (
	"context"
	"math"
	"time"

	"job-radar/internal/ai"
	"job-radar/internal/corpus"
	"job-radar/internal/embedding"
	"job-radar/internal/profile"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Matches groups scored postings by country, then by query. Posting order
// within a group follows the input corpus.
type Matches map[string]map[string][]corpus.Posting

// Config tunes the engine.
type Config struct {
	// CombinedTextLimit bounds the posting text extracted for scoring.
	CombinedTextLimit int
	// Workers bounds concurrent posting scoring within a group. Values
	// below 1 mean sequential.
	Workers int
}

const defaultCombinedTextLimit = 5000

// Engine scores postings against a resume profile. The judge is nil when LLM
// judging is disabled; the embedding provider is mandatory.
type Engine struct {
	embeddings *embedding.Provider
	judge      ai.Judge
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine builds an engine. LLM enablement is the caller's decision: pass a
// nil judge to disable it.
func NewEngine(embeddings *embedding.Provider, judge ai.Judge, cfg Config, logger *zap.Logger) *Engine {
	if cfg.CombinedTextLimit <= 0 {
		cfg.CombinedTextLimit = defaultCombinedTextLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		embeddings: embeddings,
		judge:      judge,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// ScoreJob scores a single posting. The returned posting is a copy of the
// input carrying the scoring fields; the input is never mutated. Errors are
// per-posting and are turned into degraded records by MatchAll.
func (e *Engine) ScoreJob(ctx context.Context, posting corpus.Posting, prof *profile.Profile) (corpus.Posting, error) {
	combined, err := posting.CombinedText(e.cfg.CombinedTextLimit)
	if err != nil {
		return nil, err
	}

	sim, err := e.embeddings.Similarity(ctx, combined, prof.Raw)
	if err != nil {
		return nil, err
	}

	skills := MatchSkills(combined, prof.Skills)

	var judgment *ai.Judgment
	if e.judge != nil {
		judgment, err = e.judge.Evaluate(ctx, &ai.JudgeRequest{
			Title:      posting.Title(),
			JobText:    combined,
			ResumeText: prof.Raw,
			Skills:     prof.Skills,
		})
		if err != nil {
			e.logger.Warn("LLM judgment failed, falling back to embedding signal",
				zap.String("job_title", posting.Title()),
				zap.Error(err),
			)
			judgment = ai.Unavailable("LLM error: " + err.Error())
		}
	}

	final, label, explanation := Combine(sim, skills, judgment)

	scored := posting.Clone()
	scored["embed_score"] = roundTo(sim, 4)
	scored["final_score"] = roundTo(final, 2)
	scored["category"] = label
	if e.judge != nil {
		scored["llm"] = judgment
	}
	scored["explanation"] = explanation
	scored["skill_hits"] = skills.Hits
	scored["skill_details"] = skills.Details
	scored["evaluated_at"] = e.now().UTC().Truncate(time.Second).Format(time.RFC3339)

	return scored, nil
}

// MatchAll scores the whole corpus. Group iteration follows input order; a
// failure while scoring one posting degrades that posting to its original
// fields plus an error field and never aborts the run. Only the embedding
// model initialization can fail here.
func (e *Engine) MatchAll(ctx context.Context, groups []corpus.Group, prof *profile.Profile) (Matches, error) {
	// Single initialization barrier: the model must be usable before any
	// posting is scored, and its absence is fatal to the run.
	if _, err := e.embeddings.Embedder(ctx); err != nil {
		return nil, err
	}

	out := make(Matches)
	for _, group := range groups {
		byQuery, ok := out[group.Country]
		if !ok {
			byQuery = make(map[string][]corpus.Posting)
			out[group.Country] = byQuery
		}

		scored := e.scoreGroup(ctx, group, prof)
		byQuery[group.Query] = append(byQuery[group.Query], scored...)

		e.logger.Info("scored posting group",
			zap.String("country", group.Country),
			zap.String("query", group.Query),
			zap.Int("postings", len(scored)),
		)
	}

	return out, nil
}

// scoreGroup scores one group's postings, optionally across workers. Results
// keep the input order regardless of worker count.
func (e *Engine) scoreGroup(ctx context.Context, group corpus.Group, prof *profile.Profile) []corpus.Posting {
	results := make([]corpus.Posting, len(group.Jobs))

	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, job := range group.Jobs {
		eg.Go(func() error {
			scored, err := e.ScoreJob(ctx, job, prof)
			if err != nil {
				e.logger.Warn("scoring posting failed",
					zap.String("country", group.Country),
					zap.String("job_title", job.Title()),
					zap.Error(err),
				)
				scored = job.Clone()
				scored["error"] = err.Error()
			}
			results[i] = scored
			return nil
		})
	}

	// Workers never return errors; failures degrade per posting above.
	_ = eg.Wait()

	return results
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
