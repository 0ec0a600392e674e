package corpus

// Group is a batch of postings scraped for one (country, query) pair.
type Group struct {
	Country string    `json:"country"`
	Query   string    `json:"query"`
	Jobs    []Posting `json:"jobs"`
}
