// Package skills finds canonical taxonomy skills in free text.
//
// Matching is a case-insensitive substring test without word boundaries, so a
// short alias such as "lp" also hits inside "help". This keeps behavior
// compatible with existing taxonomies; tightening it changes which documents
// match and must be treated as a behavior change.
package skills

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spigell/skillgap/internal/taxonomy"
)

// maxSpans limits how many occurrences FindSpans reports per term.
const maxSpans = 5

// Span is a half-open [Start, End) range of character (rune) offsets.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Match describes a canonical skill found in a text.
type Match struct {
	Canonical string `json:"canonical"`
	Alias     string `json:"alias"`
	Spans     []Span `json:"spans"`
}

// Extract returns the sorted canonical skills present in text.
func Extract(text string, taxo *taxonomy.Taxonomy) []string {
	return ExtractSet(text, taxo).Sorted()
}

// ExtractSet returns the canonical skills present in text as a set.
func ExtractSet(text string, taxo *taxonomy.Taxonomy) Set {
	lowered := strings.ToLower(text)
	found := make(Set)

	taxo.Each(func(canonical string, aliases []string) {
		if _, ok := firstAlias(lowered, aliases); ok {
			found.Add(canonical)
		}
	})

	return found
}

// Highlight returns one Match per present canonical skill, in canonical order.
// The alias is the first one in the taxonomy order that occurs in text.
func Highlight(text string, taxo *taxonomy.Taxonomy) []Match {
	lowered := strings.ToLower(text)
	matches := make([]Match, 0)

	taxo.Each(func(canonical string, aliases []string) {
		alias, ok := firstAlias(lowered, aliases)
		if !ok {
			return
		}
		matches = append(matches, Match{
			Canonical: canonical,
			Alias:     alias,
			Spans:     FindSpans(text, alias),
		})
	})

	return matches
}

// FindSpans returns up to five occurrences of term in text, in order of
// appearance. The term is matched literally and case-insensitively.
func FindSpans(text, term string) []Span {
	if term == "" {
		return []Span{}
	}

	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	locs := re.FindAllStringIndex(text, maxSpans)

	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		start := utf8.RuneCountInString(text[:loc[0]])
		spans = append(spans, Span{
			Start: start,
			End:   start + utf8.RuneCountInString(text[loc[0]:loc[1]]),
		})
	}

	return spans
}

func firstAlias(lowered string, aliases []string) (string, bool) {
	for _, alias := range aliases {
		needle := strings.ToLower(alias)
		if needle != "" && strings.Contains(lowered, needle) {
			return alias, true
		}
	}
	return "", false
}
