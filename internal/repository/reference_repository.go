package repository

import (
	"context"
	"errors"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

var (
	ErrReferenceNotFound = errors.New("reference not found")
	ErrReferenceExists   = errors.New("reference already exists")
)

// ImportMode controls how an import treats rows already in the store.
type ImportMode string

const (
	// ImportReplace drops every existing row before inserting.
	ImportReplace ImportMode = "replace"
	// ImportMerge upserts by part number and keeps rows not in the import.
	ImportMerge ImportMode = "merge"
)

// ParseImportMode defaults to merge.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case "", ImportMerge:
		return ImportMerge, nil
	case ImportReplace:
		return ImportReplace, nil
	default:
		return "", errors.New("import mode must be replace or merge")
	}
}

type ReferenceRepository interface {
	List(ctx context.Context) ([]domain.PartReference, error)
	Get(ctx context.Context, partNumber string) (*domain.PartReference, error)
	Create(ctx context.Context, ref domain.PartReference) error
	Update(ctx context.Context, ref domain.PartReference) error
	Delete(ctx context.Context, partNumber string) error
	Import(ctx context.Context, refs []domain.PartReference, mode ImportMode) (int, error)
}
