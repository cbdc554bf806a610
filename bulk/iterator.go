package bulk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// DefaultBatchSize is the default number of files published per batch.
	DefaultBatchSize = 50
)

// DefaultExtensions lists the file types picked up from a directory.
var DefaultExtensions = []string{".txt", ".md", ".pdf"}

// FileIterator lists the uploadable files of a directory in lexical order.
type FileIterator struct {
	dir        string
	batchSize  int
	recursive  bool
	extensions []string
}

// NewFileIterator creates an iterator over dir. batchSize values <= 0 use
// DefaultBatchSize; an empty extensions list accepts every regular file.
func NewFileIterator(dir string, batchSize int, recursive bool, extensions []string) *FileIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &FileIterator{dir: dir, batchSize: batchSize, recursive: recursive, extensions: extensions}
}

// Files returns every matching file path.
func (it *FileIterator) Files() ([]string, error) {
	info, err := os.Stat(it.dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, it.dir)
	}

	var files []string
	err = filepath.WalkDir(it.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != it.dir && (!it.recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && it.accepts(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func (it *FileIterator) accepts(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if len(it.extensions) == 0 {
		return true
	}
	return slices.Contains(it.extensions, strings.ToLower(filepath.Ext(name)))
}

// ForEach calls fn with consecutive batches of files. Iteration stops on the
// first error from fn. Context cancellation is checked between batches.
func (it *FileIterator) ForEach(ctx context.Context, fn func(batch []string) error) error {
	files, err := it.Files()
	if err != nil {
		return err
	}
	for batch := range slices.Chunk(files, it.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}
