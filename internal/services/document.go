package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/m1z23r/nikode-sync/internal/crdt"
	"github.com/m1z23r/nikode-sync/internal/database"
	"github.com/m1z23r/nikode-sync/internal/models"
	"github.com/m1z23r/nikode-sync/internal/permissions"
)

var (
	ErrDocumentExists   = errors.New("document already exists")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentDeleted  = errors.New("document is deleted")
	ErrApplyFailed      = errors.New("failed to apply changes")
	ErrAccessDenied     = errors.New("access denied")
)

// DocumentService owns every document mutation. Each mutation runs in a
// serializable transaction that bumps the owning collection's colrev and
// stamps the document with the new value, so revision numbers are gapless
// per collection even under concurrent writers.
type DocumentService struct {
	db     *database.DB
	merger crdt.Merger
}

func NewDocumentService(db *database.DB, merger crdt.Merger) *DocumentService {
	return &DocumentService{db: db, merger: merger}
}

func (s *DocumentService) Create(ctx context.Context, colID, id string, data []byte) (*models.Document, error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Check before bumping so a duplicate id leaves the collection's
	// colrev untouched.
	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDocumentExists
	}

	var colrev int64
	err = tx.QueryRow(ctx, `
		UPDATE collections SET colrev = colrev + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING colrev
	`, colID).Scan(&colrev)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}

	var document models.Document
	err = tx.QueryRow(ctx, `
		INSERT INTO documents (id, col_id, data, colrev)
		VALUES ($1, $2, $3, $4)
		RETURNING id, col_id, data, is_deleted, permissions, colrev, created_at, updated_at
	`, id, colID, data, colrev).Scan(
		&document.ID, &document.ColID, &document.Data, &document.IsDeleted,
		&document.Permissions, &document.Colrev, &document.CreatedAt, &document.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &document, nil
}

// Get returns the document, or nil without error when no such row
// exists.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	var document models.Document
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, col_id, data, is_deleted, permissions, colrev, created_at, updated_at
		FROM documents WHERE id = $1
	`, id).Scan(
		&document.ID, &document.ColID, &document.Data, &document.IsDeleted,
		&document.Permissions, &document.Colrev, &document.CreatedAt, &document.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// Update merges the change list into the document, or tombstones it when
// changes is nil. A failed merge leaves the row untouched.
func (s *DocumentService) Update(ctx context.Context, id string, changes [][]byte) (*models.Document, error) {
	if changes == nil {
		return s.mutate(ctx, id, nil)
	}
	return s.mutate(ctx, id, func(current []byte) ([]byte, error) {
		return s.merger.Merge(current, changes)
	})
}

// UpdateWith applies a programmatic mutator to the stored blob instead
// of a client change list. Used for server-initiated edits.
func (s *DocumentService) UpdateWith(ctx context.Context, id string, mutate func(current []byte) ([]byte, error)) (*models.Document, error) {
	if mutate == nil {
		return nil, fmt.Errorf("%w: nil mutator", ErrApplyFailed)
	}
	return s.mutate(ctx, id, mutate)
}

// mutate runs the shared update transaction. A nil next function means
// tombstone the document.
func (s *DocumentService) mutate(ctx context.Context, id string, next func(current []byte) ([]byte, error)) (*models.Document, error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var (
		colID     string
		data      []byte
		isDeleted bool
	)
	err = tx.QueryRow(ctx, `
		SELECT col_id, data, is_deleted FROM documents WHERE id = $1 FOR UPDATE
	`, id).Scan(&colID, &data, &isDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	if isDeleted {
		return nil, ErrDocumentDeleted
	}

	var newData []byte
	tombstone := next == nil
	if !tombstone {
		newData, err = next(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrApplyFailed, err)
		}
	}

	var colrev int64
	err = tx.QueryRow(ctx, `
		UPDATE collections SET colrev = colrev + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING colrev
	`, colID).Scan(&colrev)
	if err != nil {
		return nil, err
	}

	var document models.Document
	err = tx.QueryRow(ctx, `
		UPDATE documents
		SET data = $1, is_deleted = $2, colrev = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, col_id, data, is_deleted, permissions, colrev, created_at, updated_at
	`, newData, tombstone, colrev, id).Scan(
		&document.ID, &document.ColID, &document.Data, &document.IsDeleted,
		&document.Permissions, &document.Colrev, &document.CreatedAt, &document.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &document, nil
}

// SetPermission grants a role on the document. Permission changes do not
// bump the collection's colrev; they are not synced content.
func (s *DocumentService) SetPermission(ctx context.Context, id string, p permissions.Permission, role permissions.Role) error {
	return s.updatePermissions(ctx, id, func(table permissions.Table) {
		table.Add(p, role)
	})
}

// UnsetPermission revokes a role on the document.
func (s *DocumentService) UnsetPermission(ctx context.Context, id string, p permissions.Permission, role permissions.Role) error {
	return s.updatePermissions(ctx, id, func(table permissions.Table) {
		table.Remove(p, role)
	})
}

func (s *DocumentService) updatePermissions(ctx context.Context, id string, apply func(permissions.Table)) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var serialized string
	err = tx.QueryRow(ctx, `
		SELECT permissions FROM documents WHERE id = $1 FOR UPDATE
	`, id).Scan(&serialized)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDocumentNotFound
	}
	if err != nil {
		return err
	}

	table, err := permissions.Deserialize(serialized)
	if err != nil {
		return err
	}
	apply(table)
	serialized, err = table.Serialize()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE documents SET permissions = $1, updated_at = NOW() WHERE id = $2
	`, serialized, id)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Authorize checks the subject against the document's permission table.
// Documents with an empty table are unrestricted. A missing document
// passes; existence is the mutation's concern, not authorization's.
func (s *DocumentService) Authorize(ctx context.Context, id string, subject permissions.Subject, p permissions.Permission) error {
	document, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if document == nil {
		return nil
	}

	table, err := permissions.Deserialize(document.Permissions)
	if err != nil {
		return err
	}
	if table.Empty() || table.Allows(subject, p) {
		return nil
	}
	return ErrAccessDenied
}
