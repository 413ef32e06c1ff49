package source

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

// FileLoader reads a local .csv or .xlsx file.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) Name() string { return l.path }

func (l *FileLoader) Load(ctx context.Context) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("cannot stat input file %s: %w", l.path, err)
	}
	if info.IsDir() {
		return domain.RawTable{}, fmt.Errorf("input path %s is a directory, expected file", l.path)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read %s: %w", l.path, err)
	}
	return Decode(l.path, "", data)
}
