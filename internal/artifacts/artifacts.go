// Package artifacts discovers the fixed set of files a benchmark uploads.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/eigenhq/slowking/internal/domain"
)

// Discover lists the regular files under dir as documents, in name order so
// runs are reproducible. Subdirectories are ignored.
func Discover(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("artifacts: read %s: %w", dir, err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		docs = append(docs, domain.Document{
			Name:     entry.Name(),
			FilePath: filepath.Join(dir, entry.Name()),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}
