package repository

import (
	"context"
	"database/sql"
	"time"

	"calshare/core/database"
	"calshare/core/logger"
	"calshare/modules/relationship/entity"

	"github.com/google/uuid"
)

// RelationshipRepositoryInterface defines the storage contract for
// relationship edges and label membership.
type RelationshipRepositoryInterface interface {
	Get(ctx context.Context, fromUserID, toUserID uuid.UUID) (*entity.RelationshipEdge, error)
	GetForUpdate(ctx context.Context, tx database.Executor, fromUserID, toUserID uuid.UUID) (*entity.RelationshipEdge, error)
	Insert(ctx context.Context, tx database.Executor, edge *entity.RelationshipEdge) error
	Update(ctx context.Context, tx database.Executor, edge *entity.RelationshipEdge) error
	Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error
	ListByType(ctx context.Context, fromUserID uuid.UUID, relType entity.RelationshipType) ([]entity.RelationshipEdge, error)
	ListFollowers(ctx context.Context, toUserID uuid.UUID) ([]entity.RelationshipEdge, error)
	ListLabelMembers(ctx context.Context, q database.Executor, ownerID, labelID uuid.UUID) ([]uuid.UUID, error)
	StripLabel(ctx context.Context, tx database.Executor, labelID uuid.UUID) error
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type RelationshipRepository struct {
	db database.Database
}

func NewRelationshipRepository(db database.Database) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

const relationshipColumns = `id, from_user_id, to_user_id, type, labels, created_at, updated_at`

func (r *RelationshipRepository) Get(ctx context.Context, fromUserID, toUserID uuid.UUID) (*entity.RelationshipEdge, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationship_edges WHERE from_user_id = $1 AND to_user_id = $2`

	var edge entity.RelationshipEdge
	err := r.db.GetContext(ctx, &edge, query, fromUserID, toUserID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("RelationshipRepository:Get:Error:", err)
		return nil, err
	}
	return &edge, nil
}

func (r *RelationshipRepository) GetForUpdate(ctx context.Context, tx database.Executor, fromUserID, toUserID uuid.UUID) (*entity.RelationshipEdge, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationship_edges WHERE from_user_id = $1 AND to_user_id = $2 FOR UPDATE`

	var edge entity.RelationshipEdge
	err := tx.GetContext(ctx, &edge, query, fromUserID, toUserID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("RelationshipRepository:GetForUpdate:Error:", err)
		return nil, err
	}
	return &edge, nil
}

func (r *RelationshipRepository) Insert(ctx context.Context, tx database.Executor, edge *entity.RelationshipEdge) error {
	query := `
		INSERT INTO relationship_edges (from_user_id, to_user_id, type, labels, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now()
	edge.CreatedAt = now
	edge.UpdatedAt = now
	if edge.Labels == nil {
		edge.Labels = entity.UUIDList{}
	}

	row := tx.QueryRowxContext(ctx, query,
		edge.FromUserID,
		edge.ToUserID,
		edge.Type,
		edge.Labels,
		edge.CreatedAt,
		edge.UpdatedAt,
	)
	if err := row.Scan(&edge.ID); err != nil {
		logger.Error("RelationshipRepository:Insert:Error:", err)
		return err
	}
	return nil
}

func (r *RelationshipRepository) Update(ctx context.Context, tx database.Executor, edge *entity.RelationshipEdge) error {
	query := `
		UPDATE relationship_edges
		SET type = $1, labels = $2, updated_at = $3
		WHERE id = $4
	`
	edge.UpdatedAt = time.Now()
	_, err := tx.ExecContext(ctx, query, edge.Type, edge.Labels, edge.UpdatedAt, edge.ID)
	if err != nil {
		logger.Error("RelationshipRepository:Update:Error:", err)
		return err
	}
	return nil
}

func (r *RelationshipRepository) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	query := `DELETE FROM relationship_edges WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("RelationshipRepository:Delete:Error:", err)
		return err
	}
	return nil
}

func (r *RelationshipRepository) ListByType(ctx context.Context, fromUserID uuid.UUID, relType entity.RelationshipType) ([]entity.RelationshipEdge, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationship_edges WHERE from_user_id = $1 AND type = $2 ORDER BY created_at DESC`

	var edges []entity.RelationshipEdge
	err := r.db.SelectContext(ctx, &edges, query, fromUserID, relType)
	if err != nil {
		logger.Error("RelationshipRepository:ListByType:Error:", err)
		return nil, err
	}
	return edges, nil
}

func (r *RelationshipRepository) ListFollowers(ctx context.Context, toUserID uuid.UUID) ([]entity.RelationshipEdge, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM relationship_edges
		WHERE to_user_id = $1 AND type IN ('following', 'friend')
		ORDER BY created_at DESC
	`
	var edges []entity.RelationshipEdge
	err := r.db.SelectContext(ctx, &edges, query, toUserID)
	if err != nil {
		logger.Error("RelationshipRepository:ListFollowers:Error:", err)
		return nil, err
	}
	return edges, nil
}

// ListLabelMembers returns the ids of users reachable from the owner through
// a live edge carrying the label. Blocked edges never contribute members.
func (r *RelationshipRepository) ListLabelMembers(ctx context.Context, q database.Executor, ownerID, labelID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT to_user_id
		FROM relationship_edges
		WHERE from_user_id = $1
		  AND type IN ('following', 'friend')
		  AND labels @> jsonb_build_array($2::text)
		ORDER BY to_user_id
	`
	var members []uuid.UUID
	err := q.SelectContext(ctx, &members, query, ownerID, labelID.String())
	if err != nil {
		logger.Error("RelationshipRepository:ListLabelMembers:Error:", err)
		return nil, err
	}
	return members, nil
}

// StripLabel removes the label from every edge's label set. Part of the
// label-deletion cascade.
func (r *RelationshipRepository) StripLabel(ctx context.Context, tx database.Executor, labelID uuid.UUID) error {
	query := `
		UPDATE relationship_edges
		SET labels = labels - $1, updated_at = $2
		WHERE labels @> jsonb_build_array($1::text)
	`
	_, err := tx.ExecContext(ctx, query, labelID.String(), time.Now())
	if err != nil {
		logger.Error("RelationshipRepository:StripLabel:Error:", err)
		return err
	}
	return nil
}

func (r *RelationshipRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, userID)
	if err != nil {
		logger.Error("RelationshipRepository:UserExists:Error:", err)
		return false, err
	}
	return exists, nil
}
