package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const scrapeFilePrefix = "linkedin_jobs_"

// LoadDir reads previously scraped posting files from dir into groups. Files
// follow the scraper naming contract linkedin_jobs_<country>_<query>.json;
// files that do not parse are skipped rather than failing the run.
func LoadDir(dir string) ([]Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus dir %q: %w", dir, err)
	}

	groups := make([]Group, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, scrapeFilePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}

		stem := strings.TrimSuffix(name, ".json")
		parts := strings.Split(stem, "_")
		if len(parts) < 4 {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading corpus file %q: %w", name, err)
		}

		var jobs []Posting
		if err := json.Unmarshal(data, &jobs); err != nil {
			continue
		}

		groups = append(groups, Group{
			Country: parts[2],
			Query:   strings.Join(parts[3:], " "),
			Jobs:    jobs,
		})
	}

	return groups, nil
}
