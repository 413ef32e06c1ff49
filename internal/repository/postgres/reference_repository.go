package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/repository"
	"github.com/jmoiron/sqlx"
)

const referenceColumns = `partno, stdpack_min, stdpack_max, customer, description, rate`

type referenceRepository struct {
	db *DB
}

func NewReferenceRepository(db *DB) *referenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) List(ctx context.Context) ([]domain.PartReference, error) {
	refs := []domain.PartReference{}
	query := `SELECT ` + referenceColumns + ` FROM part_references ORDER BY partno`
	if err := r.db.SelectContext(ctx, &refs, query); err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	return refs, nil
}

func (r *referenceRepository) Get(ctx context.Context, partNumber string) (*domain.PartReference, error) {
	var ref domain.PartReference
	query := `SELECT ` + referenceColumns + ` FROM part_references WHERE partno = $1`
	if err := r.db.GetContext(ctx, &ref, query, partNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrReferenceNotFound
		}
		return nil, fmt.Errorf("failed to get reference %s: %w", partNumber, err)
	}
	return &ref, nil
}

func (r *referenceRepository) Create(ctx context.Context, ref domain.PartReference) error {
	query := `
		INSERT INTO part_references (` + referenceColumns + `, created_at, updated_at)
		VALUES (:partno, :stdpack_min, :stdpack_max, :customer, :description, :rate, NOW(), NOW())
		ON CONFLICT (partno) DO NOTHING
	`
	res, err := r.db.NamedExecContext(ctx, query, ref)
	if err != nil {
		return fmt.Errorf("failed to create reference %s: %w", ref.PartNumber, err)
	}
	return expectRow(res, repository.ErrReferenceExists)
}

func (r *referenceRepository) Update(ctx context.Context, ref domain.PartReference) error {
	query := `
		UPDATE part_references SET
			stdpack_min = :stdpack_min,
			stdpack_max = :stdpack_max,
			customer = :customer,
			description = :description,
			rate = :rate,
			updated_at = NOW()
		WHERE partno = :partno
	`
	res, err := r.db.NamedExecContext(ctx, query, ref)
	if err != nil {
		return fmt.Errorf("failed to update reference %s: %w", ref.PartNumber, err)
	}
	return expectRow(res, repository.ErrReferenceNotFound)
}

func (r *referenceRepository) Delete(ctx context.Context, partNumber string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM part_references WHERE partno = $1`, partNumber)
	if err != nil {
		return fmt.Errorf("failed to delete reference %s: %w", partNumber, err)
	}
	return expectRow(res, repository.ErrReferenceNotFound)
}

func (r *referenceRepository) Import(ctx context.Context, refs []domain.PartReference, mode repository.ImportMode) (int, error) {
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if mode == repository.ImportReplace {
			if _, err := tx.ExecContext(ctx, `DELETE FROM part_references`); err != nil {
				return fmt.Errorf("failed to clear references: %w", err)
			}
		}

		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO part_references (`+referenceColumns+`, created_at, updated_at)
			VALUES (:partno, :stdpack_min, :stdpack_max, :customer, :description, :rate, NOW(), NOW())
			ON CONFLICT (partno)
			DO UPDATE SET
				stdpack_min = EXCLUDED.stdpack_min,
				stdpack_max = EXCLUDED.stdpack_max,
				customer = EXCLUDED.customer,
				description = EXCLUDED.description,
				rate = EXCLUDED.rate,
				updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, ref := range refs {
			if _, err := stmt.ExecContext(ctx, ref); err != nil {
				return fmt.Errorf("failed to import reference %s: %w", ref.PartNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}

func expectRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}
