package repository

import (
	"context"
	"database/sql"
	"time"

	"calshare/core/database"
	"calshare/core/logger"
	"calshare/modules/access/entity"

	"github.com/google/uuid"
)

// AccessRepositoryInterface defines the storage contract for access edges.
// Methods taking an Executor run against the caller's transaction so that
// cascading mutations commit or roll back as one unit.
type AccessRepositoryInterface interface {
	Get(ctx context.Context, userID, eventID uuid.UUID) (*entity.AccessEdge, error)
	GetForUpdate(ctx context.Context, tx database.Executor, userID, eventID uuid.UUID) (*entity.AccessEdge, error)
	Insert(ctx context.Context, tx database.Executor, edge *entity.AccessEdge) error
	Update(ctx context.Context, tx database.Executor, edge *entity.AccessEdge) error
	Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.AccessEdge, error)
	ListByLabelForUpdate(ctx context.Context, tx database.Executor, labelID uuid.UUID) ([]entity.AccessEdge, error)
	ListByLabelAndEventForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) ([]entity.AccessEdge, error)
	DeleteByEvent(ctx context.Context, tx database.Executor, eventID uuid.UUID) error
	EventExists(ctx context.Context, eventID uuid.UUID) (bool, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type AccessRepository struct {
	db database.Database
}

func NewAccessRepository(db database.Database) *AccessRepository {
	return &AccessRepository{db: db}
}

const accessColumns = `id, user_id, event_id, permission, reasons, created_at, updated_at`

func (r *AccessRepository) Get(ctx context.Context, userID, eventID uuid.UUID) (*entity.AccessEdge, error) {
	query := `SELECT ` + accessColumns + ` FROM access_edges WHERE user_id = $1 AND event_id = $2`

	var edge entity.AccessEdge
	err := r.db.GetContext(ctx, &edge, query, userID, eventID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("AccessRepository:Get:Error:", err)
		return nil, err
	}
	return &edge, nil
}

// GetForUpdate locks the edge row for the duration of the transaction so
// concurrent reason mutations on the same (user, event) pair serialize.
func (r *AccessRepository) GetForUpdate(ctx context.Context, tx database.Executor, userID, eventID uuid.UUID) (*entity.AccessEdge, error) {
	query := `SELECT ` + accessColumns + ` FROM access_edges WHERE user_id = $1 AND event_id = $2 FOR UPDATE`

	var edge entity.AccessEdge
	err := tx.GetContext(ctx, &edge, query, userID, eventID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("AccessRepository:GetForUpdate:Error:", err)
		return nil, err
	}
	return &edge, nil
}

func (r *AccessRepository) Insert(ctx context.Context, tx database.Executor, edge *entity.AccessEdge) error {
	query := `
		INSERT INTO access_edges (user_id, event_id, permission, reasons, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now()
	edge.CreatedAt = now
	edge.UpdatedAt = now

	row := tx.QueryRowxContext(ctx, query,
		edge.UserID,
		edge.EventID,
		edge.Permission,
		edge.Reasons,
		edge.CreatedAt,
		edge.UpdatedAt,
	)
	if err := row.Scan(&edge.ID); err != nil {
		logger.Error("AccessRepository:Insert:Error:", err)
		return err
	}
	return nil
}

func (r *AccessRepository) Update(ctx context.Context, tx database.Executor, edge *entity.AccessEdge) error {
	query := `
		UPDATE access_edges
		SET permission = $1, reasons = $2, updated_at = $3
		WHERE id = $4
	`
	edge.UpdatedAt = time.Now()
	_, err := tx.ExecContext(ctx, query, edge.Permission, edge.Reasons, edge.UpdatedAt, edge.ID)
	if err != nil {
		logger.Error("AccessRepository:Update:Error:", err)
		return err
	}
	return nil
}

func (r *AccessRepository) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	query := `DELETE FROM access_edges WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("AccessRepository:Delete:Error:", err)
		return err
	}
	return nil
}

func (r *AccessRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.AccessEdge, error) {
	query := `SELECT ` + accessColumns + ` FROM access_edges WHERE event_id = $1 ORDER BY created_at`

	var edges []entity.AccessEdge
	err := r.db.SelectContext(ctx, &edges, query, eventID)
	if err != nil {
		logger.Error("AccessRepository:ListByEvent:Error:", err)
		return nil, err
	}
	return edges, nil
}

// ListByLabelForUpdate returns every edge justified by the given label,
// locked for the caller's transaction. Used by label deletion.
func (r *AccessRepository) ListByLabelForUpdate(ctx context.Context, tx database.Executor, labelID uuid.UUID) ([]entity.AccessEdge, error) {
	query := `
		SELECT ` + accessColumns + `
		FROM access_edges
		WHERE reasons @> jsonb_build_array(jsonb_build_object('kind', 'label', 'label_id', $1::text))
		ORDER BY id
		FOR UPDATE
	`
	var edges []entity.AccessEdge
	err := tx.SelectContext(ctx, &edges, query, labelID.String())
	if err != nil {
		logger.Error("AccessRepository:ListByLabelForUpdate:Error:", err)
		return nil, err
	}
	return edges, nil
}

func (r *AccessRepository) ListByLabelAndEventForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) ([]entity.AccessEdge, error) {
	query := `
		SELECT ` + accessColumns + `
		FROM access_edges
		WHERE event_id = $1
		  AND reasons @> jsonb_build_array(jsonb_build_object('kind', 'label', 'label_id', $2::text))
		ORDER BY id
		FOR UPDATE
	`
	var edges []entity.AccessEdge
	err := tx.SelectContext(ctx, &edges, query, eventID, labelID.String())
	if err != nil {
		logger.Error("AccessRepository:ListByLabelAndEventForUpdate:Error:", err)
		return nil, err
	}
	return edges, nil
}

func (r *AccessRepository) DeleteByEvent(ctx context.Context, tx database.Executor, eventID uuid.UUID) error {
	query := `DELETE FROM access_edges WHERE event_id = $1`
	_, err := tx.ExecContext(ctx, query, eventID)
	if err != nil {
		logger.Error("AccessRepository:DeleteByEvent:Error:", err)
		return err
	}
	return nil
}

func (r *AccessRepository) EventExists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, eventID)
	if err != nil {
		logger.Error("AccessRepository:EventExists:Error:", err)
		return false, err
	}
	return exists, nil
}

func (r *AccessRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, userID)
	if err != nil {
		logger.Error("AccessRepository:UserExists:Error:", err)
		return false, err
	}
	return exists, nil
}
