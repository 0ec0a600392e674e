package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	write("linkedin_jobs_sweden_data_engineer.json", `[{"title": "DE"}]`)
	write("linkedin_jobs_norway_sre.json", `[{"title": "SRE one"}, {"title": "SRE two"}]`)
	write("linkedin_jobs_denmark_sre.json", `not json at all`)
	write("linkedin_jobs.json", `[]`)
	write("unrelated.json", `[]`)
	write("linkedin_jobs_finland_sre.txt", `[]`)

	groups, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byCountry := make(map[string]Group, len(groups))
	for _, g := range groups {
		byCountry[g.Country] = g
	}

	sweden := byCountry["sweden"]
	assert.Equal(t, "data engineer", sweden.Query)
	require.Len(t, sweden.Jobs, 1)
	assert.Equal(t, "DE", sweden.Jobs[0].Title())

	norway := byCountry["norway"]
	assert.Equal(t, "sre", norway.Query)
	assert.Len(t, norway.Jobs, 2)
}

func TestLoadDirMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
