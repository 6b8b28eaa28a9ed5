// Package harvest implements the category harvesting run: enumerate category
// members, fetch a summary per title, filter, and append glossary entries.
package harvest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mabumabu-01/it-terms/pkg/common"
	"github.com/Mabumabu-01/it-terms/pkg/wiki"
	"github.com/Mabumabu-01/it-terms/pkg/wordlist"
)

// DefaultDenylist rejects extracts about music, literature, film, and
// shipping — a rough "not an IT term" heuristic. Kept as literal substrings
// on purpose; matching is plain containment.
var DefaultDenylist = []string{
	"交響曲", "楽器", "作曲", "小説", "漫画", "映画", "貨物", "海運", "船舶",
}

const (
	defaultTag        = "未分類"
	defaultDifficulty = 1
	license           = "CC BY-SA"
	attribution       = "Wikipedia"
)

// Source provides the two upstream reads the harvester needs. *wiki.Client
// satisfies it; tests substitute a fake.
type Source interface {
	CategoryMembers(ctx context.Context, category, cont string) (titles []string, next string, err error)
	Summary(ctx context.Context, title string) (*wiki.Summary, error)
}

// SaveFunc persists the full ordered collection. It is called for the
// limit-triggered checkpoint and for the final save.
type SaveFunc func(entries []wordlist.Entry) error

// Harvester runs the sequential harvest over a working word list.
type Harvester struct {
	source   Source
	list     *wordlist.List
	save     SaveFunc
	lang     string
	denylist []string
	logger   *common.Logger
	now      func() time.Time
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(h *Harvester) {
		h.logger = logger
	}
}

// WithDenylist overrides the default denylist. An empty list disables the
// keyword filter.
func WithDenylist(words []string) Option {
	return func(h *Harvester) {
		h.denylist = words
	}
}

// WithClock sets the time source used for the initial review date.
func WithClock(now func() time.Time) Option {
	return func(h *Harvester) {
		h.now = now
	}
}

// New creates a Harvester over the given source and working list. lang is
// the language code recorded on entries; save persists the collection.
func New(source Source, list *wordlist.List, lang string, save SaveFunc, opts ...Option) *Harvester {
	h := &Harvester{
		source:   source,
		list:     list,
		save:     save,
		lang:     lang,
		denylist: DefaultDenylist,
		logger:   common.NewSilentLogger(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Run harvests the categories in order until they are exhausted or limit new
// entries were accepted, whichever comes first. Reaching the limit persists
// the collection and stops the whole run, not just the current category.
// Run returns the number of entries added.
func (h *Harvester) Run(ctx context.Context, categories []string, limit int) (int, error) {
	added := 0

	for _, category := range categories {
		h.logger.Info().Str("category", category).Msg("harvesting category")

		cont := ""
		for {
			titles, next, err := h.source.CategoryMembers(ctx, category, cont)
			if err != nil {
				return added, fmt.Errorf("list category %q: %w", category, err)
			}

			for _, title := range titles {
				if added >= limit {
					if err := h.save(h.list.Entries()); err != nil {
						return added, fmt.Errorf("save word list: %w", err)
					}
					h.logger.Info().Int("limit", limit).Int("added", added).Msg("reached limit")
					return added, nil
				}

				entry, err := h.harvestTitle(ctx, title)
				if err != nil {
					return added, err
				}
				if entry == nil {
					continue
				}
				added++
				h.logger.Info().Int("id", entry.ID).Str("term", entry.Term).Msg("added entry")
			}

			if next == "" {
				break
			}
			cont = next
		}
	}

	if err := h.save(h.list.Entries()); err != nil {
		return added, fmt.Errorf("save word list: %w", err)
	}
	h.logger.Info().Int("added", added).Msg("harvest complete")
	return added, nil
}

// harvestTitle processes a single title. A nil entry with a nil error means
// the title was skipped (duplicate, missing summary, disambiguation, empty
// or denylisted extract) — that is not an error condition.
func (h *Harvester) harvestTitle(ctx context.Context, title string) (*wordlist.Entry, error) {
	slug := wordlist.Slugify(title)
	if h.list.Has(slug) {
		h.logger.Debug().Str("title", title).Msg("skip: duplicate slug")
		return nil, nil
	}

	s, err := h.source.Summary(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("fetch summary for %q: %w", title, err)
	}
	if s == nil {
		h.logger.Debug().Str("title", title).Msg("skip: no summary")
		return nil, nil
	}
	if s.Type == "disambiguation" {
		h.logger.Debug().Str("title", title).Msg("skip: disambiguation page")
		return nil, nil
	}

	extract := strings.TrimSpace(s.Extract)
	if extract == "" {
		h.logger.Debug().Str("title", title).Msg("skip: empty extract")
		return nil, nil
	}
	if word, ok := h.denylisted(extract); ok {
		h.logger.Debug().Str("title", title).Str("keyword", word).Msg("skip: denylisted keyword")
		return nil, nil
	}

	entry := h.list.Append(h.newEntry(title, s, extract))
	// The stored term may be the summary's display title, whose slug can
	// differ from the listed title's. Index the listed title's slug too so
	// the same title is never harvested twice.
	h.list.Mark(slug)
	return &entry, nil
}

func (h *Harvester) denylisted(extract string) (string, bool) {
	for _, word := range h.denylist {
		if strings.Contains(extract, word) {
			return word, true
		}
	}
	return "", false
}

func (h *Harvester) newEntry(title string, s *wiki.Summary, extract string) wordlist.Entry {
	term := s.Title
	if term == "" {
		term = title
	}

	e := wordlist.Entry{
		Term:          term,
		Tags:          []string{defaultTag},
		Difficulty:    defaultDifficulty,
		RelatedTerms:  []string{},
		Examples:      []string{},
		OfficialLinks: []wordlist.Link{},
		SourceURLs:    []string{},
		License:       license,
		Attribution:   attribution,
		Lang:          h.lang,
		SRS: wordlist.SRS{
			NextReview: h.now().Format("2006-01-02"),
		},
	}

	// Only the field matching the fetch language is populated.
	switch h.lang {
	case "ja":
		e.DefinitionJA = extract
	case "en":
		e.DefinitionEN = extract
	}

	if s.PageURL != "" {
		e.OfficialLinks = []wordlist.Link{{Title: title + " - Wikipedia", URL: s.PageURL}}
		e.SourceURLs = []string{s.PageURL}
	}

	return e
}
