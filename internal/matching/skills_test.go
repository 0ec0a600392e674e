package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSkillsWholeWord(t *testing.T) {
	t.Parallel()

	m := MatchSkills("We are going places. Go experience required.", []string{"go"})

	assert.Equal(t, 1, m.Hits)
	assert.Equal(t, map[string]int{"go": 1}, m.Details)
}

func TestMatchSkillsNonWordEdges(t *testing.T) {
	t.Parallel()

	m := MatchSkills("Modern C++ codebase, some C too.", []string{"c++", "c#"})

	assert.Equal(t, 1, m.Hits)
	assert.Equal(t, 1, m.Details["c++"])
	assert.NotContains(t, m.Details, "c#")
}

func TestMatchSkillsMultiWordPhrase(t *testing.T) {
	t.Parallel()

	m := MatchSkills("Experience with machine learning pipelines.", []string{"machine learning", "deep learning"})

	assert.Equal(t, 1, m.Hits)
	assert.Equal(t, 2, m.Total)
	assert.InDelta(t, 0.5, m.Ratio, 1e-9)
}

func TestMatchSkillsCaseInsensitiveCounts(t *testing.T) {
	t.Parallel()

	m := MatchSkills("Python, python and PYTHON.", []string{"python"})

	assert.Equal(t, 3, m.Details["python"])
	assert.Equal(t, 1, m.Hits)
}

func TestMatchSkillsEmptySkillList(t *testing.T) {
	t.Parallel()

	m := MatchSkills("anything", nil)

	assert.Equal(t, 0, m.Hits)
	assert.Equal(t, 0, m.Total)
	assert.Zero(t, m.Ratio)
	assert.Empty(t, m.Details)
}

func TestMatchSkillsBlankSkillSkipped(t *testing.T) {
	t.Parallel()

	m := MatchSkills("go go go", []string{"  ", "go"})

	assert.Equal(t, 1, m.Hits)
	assert.Equal(t, 2, m.Total)
	assert.InDelta(t, 0.5, m.Ratio, 1e-9)
}
