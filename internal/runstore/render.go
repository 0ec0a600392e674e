package runstore

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"job-radar/internal/ai"
	"job-radar/internal/corpus"
)

const excerptLimit = 600

var pageTemplate = template.Must(template.New("run").Parse(`<html>
<head><meta charset="utf-8"><title>Job Matches</title></head>
<body>
<h1>Run {{.RunID}} - {{.Timestamp}}</h1>
{{range .Sections}}
<h2>{{.Country}} ({{.Count}})</h2>
<div style="display:flex;flex-wrap:wrap">
{{range .Cards}}
<div style="width:320px;border:1px solid #ddd;margin:8px;padding:8px;border-radius:6px">
  <div style="font-weight:600">{{.Title}}</div>
  {{if .Error}}
  <div style="font-size:12px;color:#a00;margin:4px 0">error: {{.Error}}</div>
  {{else}}
  <div style="font-size:12px;margin:4px 0"><strong>{{.Category}}</strong> &middot; confidence {{printf "%.1f" .Score}}%</div>
  {{end}}
  <div style="font-size:12px">{{.Excerpt}}...</div>
  <div style="font-size:12px;color:#444;margin-top:6px"><em>{{.Explanation}}</em></div>
  <div style="margin-top:6px"><a href="{{.URL}}" target="_blank">Open</a></div>
</div>
{{end}}
</div>
{{end}}
</body>
</html>
`))

type pageView struct {
	RunID     string
	Timestamp string
	Sections  []sectionView
}

type sectionView struct {
	Country string
	Count   int
	Cards   []cardView
}

type cardView struct {
	Title       string
	Category    string
	Score       float64
	Excerpt     string
	Explanation string
	URL         string
	Error       string
}

// RenderHTML renders a run result into a static card-based HTML report.
// Countries and queries are emitted in sorted order for stable output.
func RenderHTML(result *Result) ([]byte, error) {
	view := pageView{
		RunID:     result.Meta.RunID,
		Timestamp: result.Meta.Timestamp,
	}

	countries := make([]string, 0, len(result.Matches))
	for country := range result.Matches {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	for _, country := range countries {
		byQuery := result.Matches[country]

		queries := make([]string, 0, len(byQuery))
		for query := range byQuery {
			queries = append(queries, query)
		}
		sort.Strings(queries)

		section := sectionView{Country: country}
		for _, query := range queries {
			for _, posting := range byQuery[query] {
				section.Cards = append(section.Cards, newCard(posting))
			}
		}
		section.Count = len(section.Cards)

		view.Sections = append(view.Sections, section)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("rendering run %q: %w", result.Meta.RunID, err)
	}

	return buf.Bytes(), nil
}

// WriteHTML renders the run and writes it next to the JSON document.
func (s *Store) WriteHTML(result *Result) (string, error) {
	html, err := RenderHTML(result)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.Dir, result.Meta.RunID+".html")
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", fmt.Errorf("writing run html: %w", err)
	}

	return path, nil
}

func newCard(posting corpus.Posting) cardView {
	fields := posting.Fields()

	card := cardView{
		Title: fields.Title,
		URL:   fields.URL,
	}

	if errMsg, ok := posting["error"].(string); ok {
		card.Error = errMsg
	}

	if cat, ok := posting["category"].(string); ok {
		card.Category = cat
	}

	card.Score = floatField(posting["final_score"])
	card.Explanation = explanationField(posting)

	if text, err := posting.CombinedText(excerptLimit); err == nil {
		card.Excerpt = text
	}

	return card
}

// explanationField prefers the LLM explanation when one was recorded,
// falling back to the synthesized one. Loaded runs carry the judgment as a
// generic map, in-process results as the typed record.
func explanationField(posting corpus.Posting) string {
	switch llm := posting["llm"].(type) {
	case *ai.Judgment:
		if llm != nil && llm.Explanation != "" {
			return llm.Explanation
		}
	case map[string]any:
		if s, ok := llm["explanation"].(string); ok && s != "" {
			return s
		}
	}

	if s, ok := posting["explanation"].(string); ok {
		return s
	}

	return ""
}

func floatField(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	default:
		return 0
	}
}
