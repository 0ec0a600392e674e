package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSections(t *testing.T) {
	t.Parallel()

	prof := Parse("# Intro\nHello.\n\n## Experience\nACME Corp.\n\n## Skills\n- Go\n- Python\n")

	require.Len(t, prof.Sections, 3)
	assert.Equal(t, "Hello.", prof.Sections["intro"])
	assert.Equal(t, "ACME Corp.", prof.Sections["experience"])
	assert.Contains(t, prof.Sections["skills"], "Go")
}

func TestParseNoHeadings(t *testing.T) {
	t.Parallel()

	text := "just a plain document\nwith two lines"
	prof := Parse(text)

	require.Len(t, prof.Sections, 1)
	assert.Equal(t, text, prof.Sections["intro"])
}

func TestParseDuplicateHeadingLastWins(t *testing.T) {
	t.Parallel()

	prof := Parse("# Skills\nold\n# Skills\nnew\n")

	assert.Equal(t, "new", prof.Sections["skills"])
}

func TestSkillsFromLastMatchingSection(t *testing.T) {
	t.Parallel()

	prof := Parse("# Tech Stack\njava\n\n# Experience\nthings\n\n# Skills\nPython, SQL; Docker / Kubernetes and Terraform\n")

	assert.Equal(t, []string{"python", "sql", "docker", "kubernetes", "terraform"}, prof.Skills)
}

func TestSkillsBulletStrippingAndDedupe(t *testing.T) {
	t.Parallel()

	prof := Parse("# Skills\n- Go\n* Python\n• go\n")

	assert.Equal(t, []string{"go", "python"}, prof.Skills)
}

func TestSkillsFallbackToTailLines(t *testing.T) {
	t.Parallel()

	prof := Parse("Some Person\nGeneric text without headings at all\n\nPython, SQL, dbt\n")

	assert.Equal(t, []string{"python", "sql", "dbt"}, prof.Skills)
}

func TestSkillsEmptyWhenNothingFound(t *testing.T) {
	t.Parallel()

	prof := Parse("nothing here\nno separators either\n")

	assert.Empty(t, prof.Skills)
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "resume.md")
	require.NoError(t, os.WriteFile(path, []byte("# Skills\ngo, python\n"), 0o644))

	prof, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python"}, prof.Skills)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}
