package wordlist

// Entry is a single glossary record as persisted in words.json.
// Field names match the on-disk format; key order is not significant
// (older files carry id last, this struct emits it first).
type Entry struct {
	ID            int      `json:"id"`
	Term          string   `json:"term"`
	DefinitionJA  string   `json:"definition_ja"`
	DefinitionEN  string   `json:"definition_en"`
	Tags          []string `json:"tags"`
	Difficulty    int      `json:"difficulty"`
	RelatedTerms  []string `json:"related_terms"`
	Examples      []string `json:"examples"`
	OfficialLinks []Link   `json:"official_links"`
	SourceURLs    []string `json:"source_urls"`
	License       string   `json:"license"`
	Attribution   string   `json:"attribution"`
	Lang          string   `json:"lang"`
	SRS           SRS      `json:"srs"`
}

// Link is a titled URL, used for official documentation links.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SRS holds spaced-repetition scheduling state. The harvester only seeds it
// with an initial review date; scheduling itself happens elsewhere.
type SRS struct {
	NextReview   string  `json:"next_review"`
	IntervalDays int     `json:"interval_days"`
	Stability    float64 `json:"stability"`
}
