package repository

import (
	"context"
	"database/sql"
	"time"

	"calshare/core/database"
	"calshare/core/logger"
	"calshare/modules/label/entity"

	"github.com/google/uuid"
)

type LabelRepositoryInterface interface {
	Insert(ctx context.Context, label *entity.RelationshipLabel) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.RelationshipLabel, error)
	GetByIDForUpdate(ctx context.Context, tx database.Executor, id uuid.UUID) (*entity.RelationshipLabel, error)
	Update(ctx context.Context, label *entity.RelationshipLabel) error
	Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.RelationshipLabel, error)
}

type LabelRepository struct {
	db database.Database
}

func NewLabelRepository(db database.Database) *LabelRepository {
	return &LabelRepository{db: db}
}

func (r *LabelRepository) Insert(ctx context.Context, label *entity.RelationshipLabel) error {
	query := `
		INSERT INTO relationship_labels (owner_id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()
	label.CreatedAt = now
	label.UpdatedAt = now

	row := r.db.QueryRowContext(ctx, query, label.OwnerID, label.Name, label.Slug, label.CreatedAt, label.UpdatedAt)
	if err := row.Scan(&label.ID); err != nil {
		logger.Error("LabelRepository:Insert:Error:", err)
		return err
	}
	return nil
}

func (r *LabelRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.RelationshipLabel, error) {
	query := `SELECT id, owner_id, name, slug, created_at, updated_at FROM relationship_labels WHERE id = $1`

	var label entity.RelationshipLabel
	err := r.db.GetContext(ctx, &label, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("LabelRepository:GetByID:Error:", err)
		return nil, err
	}
	return &label, nil
}

func (r *LabelRepository) GetByIDForUpdate(ctx context.Context, tx database.Executor, id uuid.UUID) (*entity.RelationshipLabel, error) {
	query := `SELECT id, owner_id, name, slug, created_at, updated_at FROM relationship_labels WHERE id = $1 FOR UPDATE`

	var label entity.RelationshipLabel
	err := tx.GetContext(ctx, &label, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("LabelRepository:GetByIDForUpdate:Error:", err)
		return nil, err
	}
	return &label, nil
}

func (r *LabelRepository) Update(ctx context.Context, label *entity.RelationshipLabel) error {
	query := `
		UPDATE relationship_labels
		SET name = $1, slug = $2, updated_at = $3
		WHERE id = $4
	`
	label.UpdatedAt = time.Now()
	err := r.db.ExecContext(ctx, query, label.Name, label.Slug, label.UpdatedAt, label.ID)
	if err != nil {
		logger.Error("LabelRepository:Update:Error:", err)
		return err
	}
	return nil
}

func (r *LabelRepository) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	query := `DELETE FROM relationship_labels WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("LabelRepository:Delete:Error:", err)
		return err
	}
	return nil
}

func (r *LabelRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.RelationshipLabel, error) {
	query := `SELECT id, owner_id, name, slug, created_at, updated_at FROM relationship_labels WHERE owner_id = $1 ORDER BY created_at`

	var labels []entity.RelationshipLabel
	err := r.db.SelectContext(ctx, &labels, query, ownerID)
	if err != nil {
		logger.Error("LabelRepository:ListByOwner:Error:", err)
		return nil, err
	}
	return labels, nil
}
