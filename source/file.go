package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileSource reads the role document from a file on the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given path. The path is made
// absolute so that later working-directory changes do not move the document
// out from under us. The file does not have to exist yet.
func NewFileSource(path string) (*FileSource, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		logrus.WithError(err).Error("error getting absolute path")
		return nil, err
	}
	return &FileSource{path: absPath}, nil
}

// Fetch reads the whole file. A missing file surfaces as an error wrapping
// fs.ErrNotExist, which os.ReadFile already provides.
func (f *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f *FileSource) Path() string {
	return f.path
}

func (f *FileSource) Name() string {
	return "file"
}
