// Package mining counts frequent word n-grams across documents to suggest
// new taxonomy aliases.
package mining

import (
	"cmp"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/documents"
)

const (
	DefaultMinFrequency = 2
	DefaultOutput       = "data/mined_skill_phrases.csv"

	// MaxPhraseWords is the longest n-gram counted.
	MaxPhraseWords = 4
	minPhraseLen   = 3
)

var wordPattern = regexp.MustCompile(`[a-z][a-z+\-/&0-9]*`)

// Phrase is a mined n-gram with the number of times it was seen.
type Phrase struct {
	Phrase    string
	Frequency int
}

// Phrases returns every 1..MaxPhraseWords word n-gram of text, shortest first.
func Phrases(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	var phrases []string
	for n := 1; n <= MaxPhraseWords; n++ {
		for i := 0; i+n <= len(words); i++ {
			phrase := strings.Join(words[i:i+n], " ")
			if len(phrase) < minPhraseLen {
				continue
			}
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

type Counter struct {
	counts    map[string]int
	documents int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add counts the phrases of text. Blank texts are ignored.
func (c *Counter) Add(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	c.documents++
	for _, phrase := range Phrases(text) {
		c.counts[phrase]++
	}
}

// Documents returns how many non-blank texts were added.
func (c *Counter) Documents() int {
	return c.documents
}

// Frequent returns phrases seen at least minFrequency times, most frequent
// first and alphabetically within the same frequency.
func (c *Counter) Frequent(minFrequency int) []Phrase {
	result := make([]Phrase, 0)
	for phrase, freq := range c.counts {
		if freq >= minFrequency {
			result = append(result, Phrase{Phrase: phrase, Frequency: freq})
		}
	}

	slices.SortFunc(result, func(a, b Phrase) int {
		if d := cmp.Compare(b.Frequency, a.Frequency); d != 0 {
			return d
		}
		return strings.Compare(a.Phrase, b.Phrase)
	})
	return result
}

// MineDirs loads every supported document below dirs and counts their phrases.
func MineDirs(ctx context.Context, dirs []string, logger *zap.Logger) (*Counter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	counter := NewCounter()
	for _, dir := range dirs {
		logger.Info("reading documents", zap.String("dir", dir))

		docs, err := documents.LoadDir(ctx, dir, logger)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs.Items {
			counter.Add(doc.Text)
		}
	}
	return counter, nil
}

func WriteCSV(w io.Writer, phrases []Phrase) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"phrase", "frequency"}); err != nil {
		return err
	}
	for _, p := range phrases {
		if err := cw.Write([]string{p.Phrase, strconv.Itoa(p.Frequency)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes phrases as CSV to path, creating parent directories.
func WriteFile(path string, phrases []Phrase) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCSV(file, phrases); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
