// Package moderation masks censored words in message bodies before fan-out.
package moderation

import (
	"log/slog"
	"unicode"

	"roomcast/errors"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Filter holds an Aho-Corasick automaton built over a normalized word
// list. Matching is resistant to casing, accents-adjacent noise, and the
// usual digit-for-letter substitutions.
type Filter struct {
	machine *goahocorasick.Machine
	mask    rune
	log     *slog.Logger
}

// NewFilter builds the automaton from the word list. Words that normalize
// to nothing (pure punctuation, empty strings) are dropped; if none
// survive, ErrEmptyWords is returned.
func NewFilter(words []string, mask rune, log *slog.Logger) (*Filter, error) {
	var patterns [][]rune
	for _, word := range lo.Uniq(words) {
		p, _ := normalize([]rune(word))
		if len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Filter{machine: machine, mask: mask, log: log}, nil
}

// Mask replaces every censored span of body with the mask character,
// preserving length and spacing, and returns the matched words.
func (f *Filter) Mask(body string) (string, []string) {
	original := []rune(body)
	searchable, origIdx := normalize(original)
	if len(searchable) == 0 {
		return body, nil
	}

	hits := f.machine.MultiPatternSearch(searchable, false)
	if len(hits) == 0 {
		return body, nil
	}

	var matched []string
	for _, hit := range hits {
		start := hit.Pos
		end := start + len(hit.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		matched = append(matched, string(hit.Word))

		// Mask the original span covered by the normalized match,
		// including any noise characters inside it.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			original[i] = f.mask
		}
	}
	return string(original), matched
}

// normalize lowercases, undoes digit-for-letter substitutions, and strips
// punctuation/space noise, keeping a mapping back to original positions.
func normalize(input []rune) ([]rune, []int) {
	out := make([]rune, 0, len(input))
	origIdx := make([]int, 0, len(input))
	for i, r := range input {
		r = unLeet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return out, origIdx
}

func unLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	case '7':
		return 't'
	default:
		return r
	}
}
