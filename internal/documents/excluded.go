package documents

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

type ExcludedDocuments struct {
	Items []*ExcludedDocument
}

type ExcludedDocument struct {
	ID         string
	Path       string
	Role       string
	ExcludedAt time.Time
}

// ReadExcludedFile reads an exclude file. A missing or empty file yields an empty list.
func ReadExcludedFile(path string) (*ExcludedDocuments, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedDocuments{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedDocuments{}, nil
	}

	var excluded ExcludedDocuments
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedDocuments) Append(other *ExcludedDocuments) {
	if other == nil {
		return
	}
	e.Items = append(e.Items, other.Items...)
}

func (e *ExcludedDocuments) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, doc := range e.Items {
		ids = append(ids, doc.ID)
	}
	return ids
}

func (e *ExcludedDocuments) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
