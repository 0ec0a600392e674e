// Package profile turns a resume document into the structured form consumed
// by the matching engine: raw text, heading-keyed sections and an ordered
// skill list.
package profile

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Profile is the structured extraction of a resume document. It is built once
// per run and never mutated afterwards.
type Profile struct {
	Raw      string            `json:"raw"`
	Sections map[string]string `json:"sections"`
	Skills   []string          `json:"skills"`
}

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s*(.+)`)
	splitRe   = regexp.MustCompile(`[;,/]| and `)
)

// skillSectionTokens are matched as substrings against normalized section
// headings to locate the skill list.
var skillSectionTokens = []string{"skill", "technology", "tech", "tech stack", "tools"}

// ParseFile reads and parses a resume document. An unreadable file is a fatal
// condition for the run; there is no fallback profile.
func ParseFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume %q: %w", path, err)
	}

	return Parse(string(data)), nil
}

// Parse splits a markdown resume into sections and extracts the skill list.
// It never fails: a document without usable skill markers simply yields an
// empty skill list.
func Parse(text string) *Profile {
	sections, order := splitSections(text)

	return &Profile{
		Raw:      text,
		Sections: sections,
		Skills:   extractSkills(text, sections, order),
	}
}

// splitSections divides the document into blocks delimited by markdown
// headings. Heading keys are trimmed and lower-cased; on duplicate headings
// the last occurrence wins. A document without any heading becomes a single
// "intro" section.
func splitSections(text string) (map[string]string, []string) {
	sections := make(map[string]string)
	order := make([]string, 0)

	var (
		current  string
		body     []string
		haveHead bool
	)

	flush := func() {
		if !haveHead {
			return
		}
		if _, seen := sections[current]; !seen {
			order = append(order, current)
		}
		sections[current] = strings.TrimSpace(strings.Join(body, "\n"))
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			current = strings.ToLower(strings.TrimSpace(m[2]))
			body = body[:0]
			haveHead = true
			continue
		}
		body = append(body, line)
	}
	flush()

	if !haveHead {
		sections["intro"] = text
		order = append(order, "intro")
	}

	return sections, order
}

// extractSkills prefers the last section whose heading matches a skill
// keyword; resumes conventionally place skills near the end. Without such a
// section it falls back to scanning the tail of the document for a short
// separator-styled line.
func extractSkills(text string, sections map[string]string, order []string) []string {
	var block string
	for _, key := range order {
		for _, tok := range skillSectionTokens {
			if strings.Contains(key, tok) {
				block = sections[key]
				break
			}
		}
	}

	if block != "" {
		return splitItems(strings.Split(block, "\n"))
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 12 {
		lines = lines[len(lines)-12:]
	}

	var last string
	for _, line := range lines {
		if len(line) < 200 && strings.ContainsAny(line, ",•-") {
			last = line
		}
	}

	if last == "" {
		return []string{}
	}

	return splitItems([]string{last})
}

// splitItems strips leading bullet markers per line, splits on `;`, `,`, `/`
// or the word " and ", then lower-cases and deduplicates preserving
// first-seen order.
func splitItems(lines []string) []string {
	seen := make(map[string]struct{})
	items := make([]string, 0)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for _, part := range splitRe.Split(line, -1) {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			items = append(items, part)
		}
	}

	return items
}
