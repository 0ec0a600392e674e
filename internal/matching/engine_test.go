package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-radar/internal/ai"
	"job-radar/internal/corpus"
	"job-radar/internal/embedding"
	"job-radar/internal/profile"
)

// hashEmbedder maps each text to a deterministic vector so identical texts
// are maximally similar and disjoint texts are not.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, 8)
	for i, r := range text {
		vec[i%8] += float64(r)
	}
	return vec, nil
}

type stubJudge struct {
	judgment *ai.Judgment
	err      error
	calls    int
}

func (s *stubJudge) Evaluate(_ context.Context, _ *ai.JudgeRequest) (*ai.Judgment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.judgment, nil
}

func newTestProvider() *embedding.Provider {
	return embedding.NewProvider(func(ctx context.Context) (embedding.Embedder, error) {
		return hashEmbedder{}, nil
	})
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Raw:    "Data engineer. Python, SQL, Spark.",
		Skills: []string{"python", "sql", "spark"},
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC)
}

func TestScoreJobFields(t *testing.T) {
	t.Parallel()

	engine := NewEngine(newTestProvider(), nil, Config{}, nil)
	engine.now = fixedNow

	posting := corpus.Posting{
		"title":       "Data Engineer",
		"description": "Python and SQL pipelines.",
	}

	scored, err := engine.ScoreJob(context.Background(), posting, testProfile())
	require.NoError(t, err)

	assert.Equal(t, 2, scored["skill_hits"])
	assert.Equal(t, map[string]int{"python": 1, "sql": 1}, scored["skill_details"])
	assert.Contains(t, scored, "embed_score")
	assert.Contains(t, scored, "final_score")
	assert.Contains(t, scored, "category")
	assert.Contains(t, scored, "explanation")
	assert.NotContains(t, scored, "llm")
	assert.Equal(t, "2026-03-14T15:09:26Z", scored["evaluated_at"])

	// The input record stays untouched.
	assert.NotContains(t, posting, "final_score")
}

func TestScoreJobDeterministic(t *testing.T) {
	t.Parallel()

	engine := NewEngine(newTestProvider(), nil, Config{}, nil)
	engine.now = fixedNow
	posting := corpus.Posting{"title": "DE", "description": "Python."}

	first, err := engine.ScoreJob(context.Background(), posting, testProfile())
	require.NoError(t, err)
	second, err := engine.ScoreJob(context.Background(), posting, testProfile())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScoreJobWithJudge(t *testing.T) {
	t.Parallel()

	conf := 90.0
	judge := &stubJudge{judgment: &ai.Judgment{
		Confidence:  &conf,
		Label:       LabelMustApply,
		Explanation: "Direct stack match.",
	}}

	engine := NewEngine(newTestProvider(), judge, Config{}, nil)
	engine.now = fixedNow

	scored, err := engine.ScoreJob(context.Background(), corpus.Posting{"title": "DE", "description": "Python."}, testProfile())
	require.NoError(t, err)

	assert.Equal(t, LabelMustApply, scored["category"])
	assert.Equal(t, "Direct stack match.", scored["explanation"])
	assert.Equal(t, judge.judgment, scored["llm"])
	assert.Equal(t, 1, judge.calls)
}

func TestScoreJobJudgeErrorDegrades(t *testing.T) {
	t.Parallel()

	judge := &stubJudge{err: errors.New("model unavailable")}
	engine := NewEngine(newTestProvider(), judge, Config{}, nil)
	engine.now = fixedNow

	scored, err := engine.ScoreJob(context.Background(), corpus.Posting{"title": "DE", "description": "Python."}, testProfile())
	require.NoError(t, err)

	judgment, ok := scored["llm"].(*ai.Judgment)
	require.True(t, ok)
	assert.Nil(t, judgment.Confidence)
	assert.Equal(t, "LLM error: model unavailable", judgment.Explanation)
	// The fallback blend still produces a score and category.
	assert.Contains(t, scored, "final_score")
}

func TestMatchAllIsolatesMalformedPostings(t *testing.T) {
	t.Parallel()

	engine := NewEngine(newTestProvider(), nil, Config{Workers: 4}, nil)
	engine.now = fixedNow

	groups := []corpus.Group{{
		Country: "sweden",
		Query:   "data engineer",
		Jobs: []corpus.Posting{
			{"title": "Good one", "description": "Python."},
			{"title": "Bad one", "description": 99},
			{"title": "Another good", "description": "SQL."},
		},
	}}

	matches, err := engine.MatchAll(context.Background(), groups, testProfile())
	require.NoError(t, err)

	scored := matches["sweden"]["data engineer"]
	require.Len(t, scored, 3)

	assert.Equal(t, "Good one", scored[0]["title"])
	assert.Contains(t, scored[0], "final_score")

	assert.Equal(t, "Bad one", scored[1]["title"])
	assert.Contains(t, scored[1]["error"], "unsupported type")
	assert.NotContains(t, scored[1], "final_score")

	assert.Equal(t, "Another good", scored[2]["title"])
	assert.Contains(t, scored[2], "final_score")
}

func TestMatchAllInitFailureFatal(t *testing.T) {
	t.Parallel()

	provider := embedding.NewProvider(func(ctx context.Context) (embedding.Embedder, error) {
		return nil, errors.New("no api key")
	})
	engine := NewEngine(provider, nil, Config{}, nil)

	_, err := engine.MatchAll(context.Background(), []corpus.Group{{
		Country: "sweden",
		Query:   "sre",
		Jobs:    []corpus.Posting{{"title": "x", "description": "y"}},
	}}, testProfile())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize embedding model")
}

func TestMatchAllMergesGroupsPerCountry(t *testing.T) {
	t.Parallel()

	engine := NewEngine(newTestProvider(), nil, Config{}, nil)
	engine.now = fixedNow

	groups := []corpus.Group{
		{Country: "sweden", Query: "sre", Jobs: []corpus.Posting{{"title": "a", "description": "x"}}},
		{Country: "sweden", Query: "data engineer", Jobs: []corpus.Posting{{"title": "b", "description": "y"}}},
		{Country: "norway", Query: "sre", Jobs: []corpus.Posting{{"title": "c", "description": "z"}}},
	}

	matches, err := engine.MatchAll(context.Background(), groups, testProfile())
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Len(t, matches["sweden"], 2)
	assert.Len(t, matches["norway"], 1)
}

func TestScoreGroupPreservesOrderAcrossWorkers(t *testing.T) {
	t.Parallel()

	engine := NewEngine(newTestProvider(), nil, Config{Workers: 8}, nil)
	engine.now = fixedNow

	jobs := make([]corpus.Posting, 20)
	titles := make([]string, 20)
	for i := range jobs {
		title := string(rune('a' + i))
		jobs[i] = corpus.Posting{"title": title, "description": "Python."}
		titles[i] = title
	}

	matches, err := engine.MatchAll(context.Background(), []corpus.Group{{
		Country: "sweden",
		Query:   "sre",
		Jobs:    jobs,
	}}, testProfile())
	require.NoError(t, err)

	scored := matches["sweden"]["sre"]
	require.Len(t, scored, 20)
	for i, p := range scored {
		assert.Equal(t, titles[i], p["title"])
	}
}
