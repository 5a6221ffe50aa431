package repository

import (
	"context"
	"database/sql"
	"time"

	"calshare/core/database"
	"calshare/core/logger"
	"calshare/modules/event/entity"

	"github.com/google/uuid"
)

type EventRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	Insert(ctx context.Context, tx database.Executor, event *entity.Event) error
	Update(ctx context.Context, tx database.Executor, event *entity.Event) error
	Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Event, error)
}

type EventRepository struct {
	db database.Database
}

func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, owner_id, title, description, start_time, end_time, created_at, updated_at`

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var event entity.Event
	err := r.db.GetContext(ctx, &event, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("EventRepository:GetByID:Error:", err)
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) Insert(ctx context.Context, tx database.Executor, event *entity.Event) error {
	query := `
		INSERT INTO events (owner_id, title, description, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	row := tx.QueryRowxContext(ctx, query,
		event.OwnerID,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err := row.Scan(&event.ID); err != nil {
		logger.Error("EventRepository:Insert:Error:", err)
		return err
	}
	return nil
}

func (r *EventRepository) Update(ctx context.Context, tx database.Executor, event *entity.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, start_time = $3, end_time = $4, updated_at = $5
		WHERE id = $6
	`
	event.UpdatedAt = time.Now()
	_, err := tx.ExecContext(ctx, query,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		logger.Error("EventRepository:Update:Error:", err)
		return err
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	query := `DELETE FROM events WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("EventRepository:Delete:Error:", err)
		return err
	}
	return nil
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1 ORDER BY start_time`

	var events []entity.Event
	err := r.db.SelectContext(ctx, &events, query, ownerID)
	if err != nil {
		logger.Error("EventRepository:ListByOwner:Error:", err)
		return nil, err
	}
	return events, nil
}
