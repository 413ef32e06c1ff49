package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/pipeline/shortage"
	"github.com/andresuchdata/shipment-priority/internal/repository"
	"github.com/rs/zerolog/log"
)

var (
	errNoSource = errors.New("no source configured")

	// ErrInvalidReference wraps validation failures on reference input.
	ErrInvalidReference = errors.New("invalid reference")
)

// ImportResult summarizes a bulk reference import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Mode     string   `json:"mode"`
	Warnings []string `json:"warnings"`
}

type ReferenceService struct {
	repo       repository.ReferenceRepository
	normalizer *shortage.Normalizer
	onChange   func(ctx context.Context) error
}

// NewReferenceService wires the store; onChange, when set, runs after every
// successful write so cached reference tables can be dropped.
func NewReferenceService(repo repository.ReferenceRepository, defaultRatePercent float64, onChange func(ctx context.Context) error) *ReferenceService {
	return &ReferenceService{
		repo:       repo,
		normalizer: shortage.NewNormalizer(defaultRatePercent),
		onChange:   onChange,
	}
}

func (s *ReferenceService) List(ctx context.Context) ([]domain.PartReference, error) {
	return s.repo.List(ctx)
}

func (s *ReferenceService) Get(ctx context.Context, partNumber string) (*domain.PartReference, error) {
	return s.repo.Get(ctx, canonicalPart(partNumber))
}

func (s *ReferenceService) Create(ctx context.Context, ref domain.PartReference) (*domain.PartReference, error) {
	ref, err := validateReference(ref)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, ref); err != nil {
		return nil, err
	}
	s.changed(ctx)
	return &ref, nil
}

func (s *ReferenceService) Update(ctx context.Context, partNumber string, ref domain.PartReference) (*domain.PartReference, error) {
	ref.PartNumber = partNumber
	ref, err := validateReference(ref)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, ref); err != nil {
		return nil, err
	}
	s.changed(ctx)
	return &ref, nil
}

func (s *ReferenceService) Delete(ctx context.Context, partNumber string) error {
	if err := s.repo.Delete(ctx, canonicalPart(partNumber)); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// Import bulk-loads records already in structured form.
func (s *ReferenceService) Import(ctx context.Context, refs []domain.PartReference, mode repository.ImportMode) (*ImportResult, error) {
	valid := make([]domain.PartReference, 0, len(refs))
	for i, ref := range refs {
		ref, err := validateReference(ref)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		valid = append(valid, ref)
	}

	n, err := s.repo.Import(ctx, valid, mode)
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return &ImportResult{Imported: n, Mode: string(mode), Warnings: []string{}}, nil
}

// ImportTable bulk-loads a spreadsheet-shaped table. Columns are matched the
// same way as the reference source, so any sheet the planner can read can be
// imported. Column problems come back as warnings.
func (s *ReferenceService) ImportTable(ctx context.Context, table domain.RawTable, mode repository.ImportMode) (*ImportResult, error) {
	if table.IsEmpty() {
		return nil, fmt.Errorf("%w: import table is empty", ErrInvalidReference)
	}
	refs, issues := s.normalizer.NormalizeReference(table)
	for _, err := range issues {
		if shortage.IsMissingColumn(err) && len(refs) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
	}

	result, err := s.Import(ctx, refs, mode)
	if err != nil {
		return nil, err
	}
	for _, err := range issues {
		result.Warnings = append(result.Warnings, err.Error())
	}
	return result, nil
}

func (s *ReferenceService) changed(ctx context.Context) {
	if s.onChange == nil {
		return
	}
	if err := s.onChange(ctx); err != nil {
		log.Warn().Err(err).Msg("reference: invalidating cached references failed")
	}
}

func validateReference(ref domain.PartReference) (domain.PartReference, error) {
	ref.PartNumber = canonicalPart(ref.PartNumber)
	ref.Customer = strings.TrimSpace(ref.Customer)
	ref.Description = strings.TrimSpace(ref.Description)

	if ref.PartNumber == "" {
		return ref, fmt.Errorf("%w: partno is required", ErrInvalidReference)
	}
	if ref.PackSizeMin != nil && !validAmount(*ref.PackSizeMin) {
		return ref, fmt.Errorf("%w: stdpack_min must be a finite, non-negative number", ErrInvalidReference)
	}
	if ref.PackSizeMax != nil && !validAmount(*ref.PackSizeMax) {
		return ref, fmt.Errorf("%w: stdpack_max must be a finite, non-negative number", ErrInvalidReference)
	}
	if !validAmount(ref.ProductionRatePercent) {
		return ref, fmt.Errorf("%w: rate must be a finite, non-negative number", ErrInvalidReference)
	}
	if ref.Description == "" {
		ref.Description = domain.DefaultDescription
	}
	return ref, nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func canonicalPart(partNumber string) string {
	return strings.ToUpper(strings.TrimSpace(partNumber))
}
