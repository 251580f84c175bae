package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/m1z23r/nikode-sync/internal/database"
	"github.com/m1z23r/nikode-sync/internal/models"
)

var (
	ErrCollectionExists   = errors.New("collection already exists")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrColrevOutOfRange   = errors.New("colrev is ahead of the collection")
)

type CollectionService struct {
	db *database.DB
}

func NewCollectionService(db *database.DB) *CollectionService {
	return &CollectionService{db: db}
}

func (s *CollectionService) Create(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO collections (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, colrev, created_at, updated_at
	`, id).Scan(
		&collection.ID, &collection.Colrev,
		&collection.CreatedAt, &collection.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCollectionExists
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (s *CollectionService) Get(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, colrev, created_at, updated_at
		FROM collections WHERE id = $1
	`, id).Scan(
		&collection.ID, &collection.Colrev,
		&collection.CreatedAt, &collection.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (s *CollectionService) List(ctx context.Context) ([]models.Collection, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, colrev, created_at, updated_at
		FROM collections
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []models.Collection
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Colrev, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// SyncResult carries the documents a client needs to catch up, plus the
// collection revision those documents bring it to.
type SyncResult struct {
	Colrev    int64
	Documents []models.Document
}

// Sync computes what a client at sinceColrev is missing. A nil
// sinceColrev asks for a full snapshot of the live documents; otherwise
// the delta includes tombstones so the client learns about deletions.
// A sinceColrev equal to the current revision yields an empty delta.
// Counter and documents are read in one repeatable-read transaction so
// the reported colrev always covers the returned documents, even with
// writers racing in between.
func (s *CollectionService) Sync(ctx context.Context, colID string, sinceColrev *int64) (*SyncResult, error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var colrev int64
	err = tx.QueryRow(ctx, `
		SELECT colrev FROM collections WHERE id = $1
	`, colID).Scan(&colrev)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Colrev: colrev}

	switch {
	case sinceColrev == nil:
		result.Documents, err = queryDocuments(ctx, tx, `
			SELECT id, col_id, data, is_deleted, permissions, colrev, created_at, updated_at
			FROM documents WHERE col_id = $1 AND is_deleted = FALSE
			ORDER BY colrev
		`, colID)
	case *sinceColrev < 0 || *sinceColrev > colrev:
		return nil, fmt.Errorf("%w: client at %d, collection at %d",
			ErrColrevOutOfRange, *sinceColrev, colrev)
	case *sinceColrev == colrev:
		// Up to date, nothing to send.
	default:
		result.Documents, err = queryDocuments(ctx, tx, `
			SELECT id, col_id, data, is_deleted, permissions, colrev, created_at, updated_at
			FROM documents WHERE col_id = $1 AND colrev > $2
			ORDER BY colrev
		`, colID, *sinceColrev)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func queryDocuments(ctx context.Context, tx pgx.Tx, sql string, args ...any) ([]models.Document, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.ColID, &d.Data, &d.IsDeleted,
			&d.Permissions, &d.Colrev, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		documents = append(documents, d)
	}
	return documents, rows.Err()
}

// Delete removes the collection and every document in it, tombstones
// included.
func (s *CollectionService) Delete(ctx context.Context, id string) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE col_id = $1`, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCollectionNotFound
	}

	return tx.Commit(ctx)
}
