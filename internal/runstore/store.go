// Package runstore persists run results as JSON documents under a runs
// directory and renders them to static HTML. Results are written once per run
// and never mutated.
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"job-radar/internal/matching"

	"github.com/google/uuid"
)

// Meta identifies a run.
type Meta struct {
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`
	Query     string `json:"query"`
	Status    string `json:"status"`
}

// Result is the persisted output of one run. Its field names and value
// ranges are the contract downstream rendering depends on.
type Result struct {
	Meta    Meta             `json:"meta"`
	Matches matching.Matches `json:"matches"`
}

// NewRunID returns a short unique run identifier (8 hex chars).
func NewRunID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:4])
}

var runIDRe = regexp.MustCompile(`^[0-9a-fA-F-]+$`)

// Store reads and writes run documents in a directory.
type Store struct {
	Dir string
}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Save writes the result as <run_id>.json, assigning a run id when missing.
// It returns the written path.
func (s *Store) Save(result *Result) (string, error) {
	if result.Meta.RunID == "" {
		result.Meta.RunID = NewRunID()
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating runs dir: %w", err)
	}

	path := filepath.Join(s.Dir, result.Meta.RunID+".json")

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run result: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run result: %w", err)
	}

	return path, nil
}

// Load reads one run by id.
func (s *Store) Load(runID string) (*Result, error) {
	if !runIDRe.MatchString(runID) {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir, runID+".json"))
	if err != nil {
		return nil, fmt.Errorf("reading run %q: %w", runID, err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding run %q: %w", runID, err)
	}

	return &result, nil
}

// List returns the metadata of all stored runs, newest first. Undecodable
// files are skipped.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Meta{}, nil
		}
		return nil, fmt.Errorf("reading runs dir: %w", err)
	}

	metas := make([]Meta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			continue
		}

		var partial struct {
			Meta Meta `json:"meta"`
		}
		if err := json.Unmarshal(data, &partial); err != nil {
			continue
		}

		metas = append(metas, partial.Meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].Timestamp > metas[j].Timestamp
	})

	return metas, nil
}
