package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

type Document struct {
	// ID is the slash-separated path relative to the loaded folder.
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	Text string `json:"-"`
}

type Documents struct {
	Items []*Document `json:"items"`
}

// LoadFile reads a single document from disk.
func LoadFile(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text, err := ExtractText(ctx, data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", path, err)
	}

	name := filepath.Base(path)
	return &Document{
		ID:   name,
		Name: strings.TrimSuffix(name, filepath.Ext(name)),
		Path: path,
		Text: text,
	}, nil
}

// LoadDir walks dir recursively and loads every file with a supported
// extension. Files that cannot be decoded are logged and skipped.
func LoadDir(ctx context.Context, dir string, logger *zap.Logger) (*Documents, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	docs := &Documents{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}

		doc, err := LoadFile(ctx, path)
		if err != nil {
			logger.Warn("skip unreadable document", zap.String("path", path), zap.Error(err))
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		doc.ID = filepath.ToSlash(rel)
		docs.Items = append(docs.Items, doc)

		logger.Debug("document loaded",
			zap.String("id", doc.ID),
			zap.Int("text_length", len(doc.Text)),
		)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load documents from %s: %w", dir, err)
	}

	return docs, nil
}

// Supported reports whether path has one of SupportedExtensions.
func Supported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

func (d *Documents) Len() int {
	return len(d.Items)
}

func (d *Documents) FindByID(id string) *Document {
	for _, doc := range d.Items {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}

func (d *Documents) IDs() []string {
	ids := make([]string, 0, len(d.Items))
	for _, doc := range d.Items {
		ids = append(ids, doc.ID)
	}
	return ids
}

// Exclude removes documents whose ID is in targets and returns the removed IDs.
// Order of the remaining documents is preserved.
func (d *Documents) Exclude(targets []string) []string {
	var excluded []string
	d.Items = slices.DeleteFunc(d.Items, func(doc *Document) bool {
		if slices.Contains(targets, doc.ID) {
			excluded = append(excluded, doc.ID)
			return true
		}
		return false
	})
	return excluded
}

func (d *Documents) DumpToTmpFile() (string, error) {
	return dumpToTmpFile("documents_*.json", d)
}

func dumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
