package wordlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Load reads the persisted word list from path. A missing file is not an
// error; it yields an empty list so a first run starts from scratch.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read word list %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", path, err)
	}
	return entries, nil
}

// Save rewrites the full collection at path. Non-ASCII text is written as
// literal UTF-8 and the output is indented for manual review.
func Save(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode word list: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write word list %s: %w", path, err)
	}
	return nil
}

// List is the in-memory working set: the ordered entries plus the slug index
// used for deduplication and the next id to assign.
type List struct {
	entries []Entry
	slugs   map[string]bool
	nextID  int
}

// NewList builds a working set from previously persisted entries. The next
// id is max(existing ids)+1, or 1 for an empty collection, so ids are never
// reused across runs.
func NewList(entries []Entry) *List {
	l := &List{
		slugs:  make(map[string]bool, len(entries)),
		nextID: 1,
	}
	for _, e := range entries {
		l.entries = append(l.entries, e)
		l.slugs[Slugify(e.Term)] = true
		if e.ID >= l.nextID {
			l.nextID = e.ID + 1
		}
	}
	return l
}

// Has reports whether a term with the given slug is already present.
func (l *List) Has(slug string) bool {
	return l.slugs[slug]
}

// Mark records a slug in the dedup index without appending an entry. The
// harvester uses it so the listed title's slug dedupes later encounters even
// when the stored display term slugifies differently.
func (l *List) Mark(slug string) {
	l.slugs[slug] = true
}

// Len returns the number of entries in the working set.
func (l *List) Len() int {
	return len(l.entries)
}

// Entries returns the ordered entries for persisting.
func (l *List) Entries() []Entry {
	return l.entries
}

// NextID returns the id the next appended entry will receive.
func (l *List) NextID() int {
	return l.nextID
}

// Append assigns the next sequential id to e, records its slug, and returns
// the stored entry.
func (l *List) Append(e Entry) Entry {
	e.ID = l.nextID
	l.nextID++
	l.entries = append(l.entries, e)
	l.slugs[Slugify(e.Term)] = true
	return e
}
