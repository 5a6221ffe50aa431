package repository

import (
	"context"
	"database/sql"
	"time"

	"calshare/core/database"
	"calshare/core/logger"
	"calshare/modules/defaultshare/entity"

	"github.com/google/uuid"
)

type DefaultShareRepositoryInterface interface {
	Get(ctx context.Context, labelID, eventID uuid.UUID) (*entity.DefaultShare, error)
	GetForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) (*entity.DefaultShare, error)
	Insert(ctx context.Context, tx database.Executor, share *entity.DefaultShare) error
	UpdatePermission(ctx context.Context, tx database.Executor, share *entity.DefaultShare) error
	Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error
	ListByLabel(ctx context.Context, labelID uuid.UUID) ([]entity.DefaultShare, error)
	DeleteByLabel(ctx context.Context, tx database.Executor, labelID uuid.UUID) error
	DeleteByEvent(ctx context.Context, tx database.Executor, eventID uuid.UUID) error
}

type DefaultShareRepository struct {
	db database.Database
}

func NewDefaultShareRepository(db database.Database) *DefaultShareRepository {
	return &DefaultShareRepository{db: db}
}

const defaultShareColumns = `id, label_id, event_id, default_permission, created_at, updated_at`

func (r *DefaultShareRepository) Get(ctx context.Context, labelID, eventID uuid.UUID) (*entity.DefaultShare, error) {
	query := `SELECT ` + defaultShareColumns + ` FROM default_shares WHERE label_id = $1 AND event_id = $2`

	var share entity.DefaultShare
	err := r.db.GetContext(ctx, &share, query, labelID, eventID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("DefaultShareRepository:Get:Error:", err)
		return nil, err
	}
	return &share, nil
}

func (r *DefaultShareRepository) GetForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) (*entity.DefaultShare, error) {
	query := `SELECT ` + defaultShareColumns + ` FROM default_shares WHERE label_id = $1 AND event_id = $2 FOR UPDATE`

	var share entity.DefaultShare
	err := tx.GetContext(ctx, &share, query, labelID, eventID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("DefaultShareRepository:GetForUpdate:Error:", err)
		return nil, err
	}
	return &share, nil
}

func (r *DefaultShareRepository) Insert(ctx context.Context, tx database.Executor, share *entity.DefaultShare) error {
	query := `
		INSERT INTO default_shares (label_id, event_id, default_permission, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()
	share.CreatedAt = now
	share.UpdatedAt = now

	row := tx.QueryRowxContext(ctx, query, share.LabelID, share.EventID, share.DefaultPermission, share.CreatedAt, share.UpdatedAt)
	if err := row.Scan(&share.ID); err != nil {
		logger.Error("DefaultShareRepository:Insert:Error:", err)
		return err
	}
	return nil
}

func (r *DefaultShareRepository) UpdatePermission(ctx context.Context, tx database.Executor, share *entity.DefaultShare) error {
	query := `UPDATE default_shares SET default_permission = $1, updated_at = $2 WHERE id = $3`

	share.UpdatedAt = time.Now()
	_, err := tx.ExecContext(ctx, query, share.DefaultPermission, share.UpdatedAt, share.ID)
	if err != nil {
		logger.Error("DefaultShareRepository:UpdatePermission:Error:", err)
		return err
	}
	return nil
}

func (r *DefaultShareRepository) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	query := `DELETE FROM default_shares WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("DefaultShareRepository:Delete:Error:", err)
		return err
	}
	return nil
}

func (r *DefaultShareRepository) ListByLabel(ctx context.Context, labelID uuid.UUID) ([]entity.DefaultShare, error) {
	query := `SELECT ` + defaultShareColumns + ` FROM default_shares WHERE label_id = $1 ORDER BY created_at`

	var shares []entity.DefaultShare
	err := r.db.SelectContext(ctx, &shares, query, labelID)
	if err != nil {
		logger.Error("DefaultShareRepository:ListByLabel:Error:", err)
		return nil, err
	}
	return shares, nil
}

func (r *DefaultShareRepository) DeleteByLabel(ctx context.Context, tx database.Executor, labelID uuid.UUID) error {
	query := `DELETE FROM default_shares WHERE label_id = $1`
	_, err := tx.ExecContext(ctx, query, labelID)
	if err != nil {
		logger.Error("DefaultShareRepository:DeleteByLabel:Error:", err)
		return err
	}
	return nil
}

func (r *DefaultShareRepository) DeleteByEvent(ctx context.Context, tx database.Executor, eventID uuid.UUID) error {
	query := `DELETE FROM default_shares WHERE event_id = $1`
	_, err := tx.ExecContext(ctx, query, eventID)
	if err != nil {
		logger.Error("DefaultShareRepository:DeleteByEvent:Error:", err)
		return err
	}
	return nil
}
