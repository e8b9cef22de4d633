// Package taxonomy loads the canonical skill table used by the matcher.
package taxonomy

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
)

const (
	canonicalColumn = "canonical"
	aliasesColumn   = "aliases"
	aliasSeparator  = ";"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Taxonomy maps canonical skill names to their aliases.
// It is never mutated after construction, so concurrent reads need no locking.
type Taxonomy struct {
	entries map[string][]string
	keys    []string
}

// New builds a taxonomy from the given mapping. Alias lists are copied as is.
func New(entries map[string][]string) *Taxonomy {
	t := &Taxonomy{
		entries: make(map[string][]string, len(entries)),
		keys:    make([]string, 0, len(entries)),
	}

	for canonical, aliases := range entries {
		t.entries[canonical] = append([]string(nil), aliases...)
		t.keys = append(t.keys, canonical)
	}
	sort.Strings(t.keys)

	return t
}

// Empty returns a taxonomy without entries.
func Empty() *Taxonomy {
	return New(nil)
}

// Len returns the number of canonical skills.
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Canonicals returns canonical skill names in lexicographic order.
func (t *Taxonomy) Canonicals() []string {
	if t == nil {
		return []string{}
	}
	return append([]string{}, t.keys...)
}

// Aliases returns a copy of the alias list for canonical, or nil if unknown.
func (t *Taxonomy) Aliases(canonical string) []string {
	if t == nil {
		return nil
	}
	aliases, ok := t.entries[canonical]
	if !ok {
		return nil
	}
	return append([]string(nil), aliases...)
}

// Each calls fn for every canonical skill in lexicographic order.
// fn must not modify the aliases slice.
func (t *Taxonomy) Each(fn func(canonical string, aliases []string)) {
	if t == nil {
		return
	}
	for _, key := range t.keys {
		fn(key, t.entries[key])
	}
}

// LoadFile reads the taxonomy table from path.
// Only I/O failures are reported; malformed content yields an empty taxonomy.
func LoadFile(path string) (*Taxonomy, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Load reads the whole source and parses it with Parse.
// A leading byte-order mark (UTF-8 or UTF-16) selects the decoding.
func Load(r io.Reader) (*Taxonomy, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	raw, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}

	return Parse(raw), nil
}

// Parse builds a taxonomy from a CSV table with a header row.
//
// The header must contain a "canonical" column and may contain an "aliases"
// column with ";"-separated values. Without a canonical column the result is
// empty. Canonical names are trimmed and upper-cased; the canonical name is
// always the first alias. When a canonical name repeats, the last row wins,
// which makes reloading an edited table idempotent.
func Parse(data []byte) *Taxonomy {
	data = bytes.TrimPrefix(data, utf8BOM)

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Empty()
	}

	canonicalIdx, aliasesIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case canonicalColumn:
			if canonicalIdx == -1 {
				canonicalIdx = i
			}
		case aliasesColumn:
			if aliasesIdx == -1 {
				aliasesIdx = i
			}
		}
	}

	if canonicalIdx == -1 {
		return Empty()
	}

	upper := cases.Upper(language.Und)
	entries := make(map[string][]string)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			break
		}

		if blankRow(row) || canonicalIdx >= len(row) {
			continue
		}

		canonical := upper.String(strings.TrimSpace(row[canonicalIdx]))
		if canonical == "" {
			continue
		}

		aliases := []string{canonical}
		if aliasesIdx != -1 && aliasesIdx < len(row) {
			for _, alias := range strings.Split(row[aliasesIdx], aliasSeparator) {
				if alias = strings.TrimSpace(alias); alias != "" {
					aliases = append(aliases, alias)
				}
			}
		}

		entries[canonical] = aliases
	}

	return New(entries)
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
