package matching

import (
	"regexp"
	"strings"
	"unicode"
)

// SkillMatch is the deterministic lexical signal: how many of the resume
// skills appear as whole tokens in the posting text.
type SkillMatch struct {
	Hits    int
	Total   int
	Details map[string]int
	Ratio   float64
}

// MatchSkills counts whole-word (whole-phrase for multi-word skills)
// case-insensitive occurrences of each skill in text. Ratio divides by
// max(1, len(skills)) so a resume without extracted skills yields 0, not an
// error.
func MatchSkills(text string, skills []string) SkillMatch {
	match := SkillMatch{
		Total:   len(skills),
		Details: make(map[string]int),
	}

	for _, skill := range skills {
		re := skillPattern(skill)
		if re == nil {
			continue
		}

		count := len(re.FindAllStringIndex(text, -1))
		if count == 0 {
			continue
		}

		match.Details[skill] = count
		match.Hits++
	}

	divisor := match.Total
	if divisor < 1 {
		divisor = 1
	}
	match.Ratio = float64(match.Hits) / float64(divisor)

	return match
}

// skillPattern builds a boundary-anchored literal pattern for the skill, so
// "go" does not match inside "going". \b only applies on sides that begin or
// end with a word character; an edge like the '+' in "c++" is self-delimiting.
func skillPattern(skill string) *regexp.Regexp {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil
	}

	runes := []rune(skill)

	var left, right string
	if isWordRune(runes[0]) {
		left = `\b`
	}
	if isWordRune(runes[len(runes)-1]) {
		right = `\b`
	}

	re, err := regexp.Compile(`(?i)` + left + regexp.QuoteMeta(skill) + right)
	if err != nil {
		return nil
	}

	return re
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
