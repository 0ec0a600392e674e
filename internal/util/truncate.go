package util

// TruncateBudget bounds s to at most limit runes. When the text exceeds the
// budget, the first 75% and the last 25% of the budget are kept, so the
// conclusion of a document (where resumes usually list skills) survives
// alongside its introduction.
func TruncateBudget(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	head := limit * 3 / 4
	tail := limit - head

	return string(runes[:head]) + "\n...\n" + string(runes[len(runes)-tail:])
}
