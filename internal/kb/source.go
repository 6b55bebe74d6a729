package kb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"comprendre/internal/domain"
)

// LoadDir reads every .txt file directly under dir, in lexical order, and
// returns them as document sources labeled by filename. Zero .txt files is
// ErrNoDocuments so the caller can degrade instead of crashing.
func LoadDir(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoDocuments, dir)
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no .txt files in %s", domain.ErrNoDocuments, dir)
	}
	sort.Strings(names)
	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{Source: name, Content: string(data)})
	}
	return docs, nil
}
