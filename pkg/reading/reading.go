// Package reading annotates glossary terms with katakana readings to aid
// manual curation of the harvested word list.
package reading

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Annotator derives readings via morphological analysis.
type Annotator struct {
	t *tokenizer.Tokenizer
}

// NewAnnotator creates an annotator backed by the IPA dictionary.
func NewAnnotator() (*Annotator, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Annotator{t: t}, nil
}

// Kagome IPA features:
// 0-3: POS and sub-POS, 4-5: conjugation, 6: base form, 7: reading, 8: pronunciation.
const readingFeature = 7

// Reading returns the katakana reading of term, concatenated across tokens.
// It returns "" when the dictionary knows no reading for any token (typical
// for raw ASCII terms), so callers can distinguish "no reading" from a term
// that reads as itself.
func (a *Annotator) Reading(term string) string {
	var b strings.Builder
	known := false

	for _, token := range a.t.Tokenize(term) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		features := token.Features()
		if len(features) > readingFeature && features[readingFeature] != "*" {
			b.WriteString(features[readingFeature])
			known = true
		} else {
			b.WriteString(token.Surface)
		}
	}

	if !known {
		return ""
	}
	return b.String()
}
