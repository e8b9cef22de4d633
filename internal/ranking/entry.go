// Package ranking scores one resume against a set of job descriptions and
// keeps the results in a sortable, filterable list.
package ranking

import (
	"cmp"
	"encoding/json"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/skillgap/internal/documents"
	"github.com/spigell/skillgap/internal/scoring"
	"github.com/spigell/skillgap/internal/semantic"
	"github.com/spigell/skillgap/internal/signals"
)

// Entry is one job description scored against the resume.
type Entry struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Path          string             `json:"path"`
	Role          signals.Role       `json:"role"`
	Skills        []string           `json:"skills"`
	Fit           *scoring.FitResult `json:"fit"`
	Semantic      *semantic.Result   `json:"semantic,omitempty"`
	SemanticError string             `json:"semantic_error,omitempty"`
}

type Entries struct {
	Items []*Entry `json:"items"`
}

func (e *Entries) Len() int {
	return len(e.Items)
}

func (e *Entries) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, entry := range e.Items {
		ids = append(ids, entry.ID)
	}
	return ids
}

func (e *Entries) FindByID(id string) *Entry {
	for _, entry := range e.Items {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// Sort orders entries by fit score, best first, then by ID.
func (e *Entries) Sort() {
	slices.SortStableFunc(e.Items, func(a, b *Entry) int {
		if c := cmp.Compare(b.Fit.FitScore, a.Fit.FitScore); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Exclude removes entries with the given IDs and returns the removed IDs.
func (e *Entries) Exclude(targets []string) []string {
	return e.Drop(func(entry *Entry) bool {
		return slices.Contains(targets, entry.ID)
	})
}

// Drop removes every entry for which drop returns true, keeping order, and
// returns the removed IDs.
func (e *Entries) Drop(drop func(*Entry) bool) []string {
	var dropped []string
	e.Items = slices.DeleteFunc(e.Items, func(entry *Entry) bool {
		if drop(entry) {
			dropped = append(dropped, entry.ID)
			return true
		}
		return false
	})
	return dropped
}

// ReportByRole groups a short summary of every entry by the job's role.
func (e *Entries) ReportByRole() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, entry := range e.Items {
		key := entry.Role.String()
		row := map[string]string{
			"id":         entry.ID,
			"path":       entry.Path,
			"fit_score":  strconv.FormatFloat(entry.Fit.FitScore, 'f', -1, 64),
			"role_match": strconv.FormatBool(entry.Fit.RoleMatch),
			"matched":    strings.Join(entry.Fit.Matched, ", "),
			"missing":    strings.Join(entry.Fit.Missing, ", "),
			"years":      strconv.Itoa(entry.Fit.YearsCandidate) + "/" + strconv.Itoa(entry.Fit.YearsRequired),
		}
		if entry.Semantic != nil {
			row["semantic_score"] = strconv.FormatFloat(entry.Semantic.SemanticScore, 'f', -1, 64)
		}
		if entry.SemanticError != "" {
			row["semantic_error"] = entry.SemanticError
		}
		report[key] = append(report[key], row)
	}
	return report
}

func (e *Entries) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "ranking_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ToExcluded converts entries into exclude-file records stamped with now.
func (e *Entries) ToExcluded(now time.Time) *documents.ExcludedDocuments {
	excluded := &documents.ExcludedDocuments{}
	for _, entry := range e.Items {
		excluded.Items = append(excluded.Items, &documents.ExcludedDocument{
			ID:         entry.ID,
			Path:       entry.Path,
			Role:       entry.Role.String(),
			ExcludedAt: now.UTC(),
		})
	}
	return excluded
}
