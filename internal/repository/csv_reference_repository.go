package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/source"
)

// csvReferenceRepository keeps reference rows in a single CSV file. The file
// is re-read on every call so hand edits are picked up.
type csvReferenceRepository struct {
	path string
	mu   sync.RWMutex
}

func NewCSVReferenceRepository(path string) *csvReferenceRepository {
	return &csvReferenceRepository{path: path}
}

func (r *csvReferenceRepository) List(ctx context.Context) ([]domain.PartReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read(ctx)
}

func (r *csvReferenceRepository) Get(ctx context.Context, partNumber string) (*domain.PartReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(refs, partNumber); i >= 0 {
		return &refs[i], nil
	}
	return nil, ErrReferenceNotFound
}

func (r *csvReferenceRepository) Create(ctx context.Context, ref domain.PartReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs, err := r.read(ctx)
	if err != nil {
		return err
	}
	if indexOf(refs, ref.PartNumber) >= 0 {
		return ErrReferenceExists
	}
	return r.write(append(refs, ref))
}

func (r *csvReferenceRepository) Update(ctx context.Context, ref domain.PartReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs, err := r.read(ctx)
	if err != nil {
		return err
	}
	i := indexOf(refs, ref.PartNumber)
	if i < 0 {
		return ErrReferenceNotFound
	}
	refs[i] = ref
	return r.write(refs)
}

func (r *csvReferenceRepository) Delete(ctx context.Context, partNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs, err := r.read(ctx)
	if err != nil {
		return err
	}
	i := indexOf(refs, partNumber)
	if i < 0 {
		return ErrReferenceNotFound
	}
	return r.write(append(refs[:i], refs[i+1:]...))
}

func (r *csvReferenceRepository) Import(ctx context.Context, refs []domain.PartReference, mode ImportMode) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current []domain.PartReference
	if mode == ImportMerge {
		var err error
		if current, err = r.read(ctx); err != nil {
			return 0, err
		}
	}

	for _, ref := range refs {
		if i := indexOf(current, ref.PartNumber); i >= 0 {
			current[i] = ref
			continue
		}
		current = append(current, ref)
	}
	if err := r.write(current); err != nil {
		return 0, err
	}
	return len(refs), nil
}

func (r *csvReferenceRepository) read(ctx context.Context) ([]domain.PartReference, error) {
	table, err := source.NewFileLoader(r.path).Load(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.PartReference{}, nil
		}
		return nil, err
	}
	return decodeReferences(table)
}

// write replaces the file atomically and keeps rows sorted by part number.
func (r *csvReferenceRepository) write(refs []domain.PartReference) error {
	sorted := append([]domain.PartReference(nil), refs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	var buf bytes.Buffer
	if err := source.EncodeCSV(&buf, source.ReferenceTable(sorted)); err != nil {
		return fmt.Errorf("encode references: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create reference dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".ref-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write references: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), r.path)
}

func decodeReferences(table domain.RawTable) ([]domain.PartReference, error) {
	idx := make(map[string]int, len(table.Header))
	for i, h := range table.Header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["partno"]; !ok {
		return nil, fmt.Errorf("reference file has no partno column")
	}
	if _, ok := idx["desc"]; !ok {
		if i, ok := idx["description"]; ok {
			idx["desc"] = i
		}
	}

	get := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	refs := make([]domain.PartReference, 0, len(table.Rows))
	for n, row := range table.Rows {
		partNumber := get(row, "partno")
		if partNumber == "" {
			continue
		}
		ref := domain.PartReference{
			PartNumber:  partNumber,
			Customer:    get(row, "customer"),
			Description: get(row, "desc"),
		}

		var err error
		if ref.PackSizeMin, err = optionalFloat(get(row, "stdpack_min")); err != nil {
			return nil, fmt.Errorf("row %d stdpack_min: %w", n+2, err)
		}
		if ref.PackSizeMax, err = optionalFloat(get(row, "stdpack_max")); err != nil {
			return nil, fmt.Errorf("row %d stdpack_max: %w", n+2, err)
		}
		if rate := get(row, "rate"); rate != "" {
			if ref.ProductionRatePercent, err = strconv.ParseFloat(strings.ReplaceAll(rate, ",", ""), 64); err != nil {
				return nil, fmt.Errorf("row %d rate: %w", n+2, err)
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func indexOf(refs []domain.PartReference, partNumber string) int {
	for i := range refs {
		if refs[i].PartNumber == partNumber {
			return i
		}
	}
	return -1
}
