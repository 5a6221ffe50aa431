package repository

import (
	"context"
	"database/sql"
	"time"

	"calshare/core/database"
	"calshare/core/logger"
	"calshare/modules/auth/entity"

	"github.com/google/uuid"
)

type AuthRepositoryInterface interface {
	CreateUser(ctx context.Context, user *entity.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]entity.User, error)
}

type AuthRepository struct {
	db database.Database
}

func NewAuthRepository(db database.Database) *AuthRepository {
	return &AuthRepository{db: db}
}

const userColumns = `id, email, username, password, is_active, created_at, updated_at`

func (r *AuthRepository) CreateUser(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (email, username, password, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	row := r.db.QueryRowxContext(ctx, query,
		user.Email,
		user.Username,
		user.Password,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err := row.Scan(&user.ID); err != nil {
		logger.Error("AuthRepository:CreateUser:Error:", err)
		return err
	}
	return nil
}

func (r *AuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user entity.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("AuthRepository:GetUserByID:Error:", err)
		return nil, err
	}
	return &user, nil
}

// GetUserByIdentifier matches the identifier against both email and username.
func (r *AuthRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $1`

	var user entity.User
	err := r.db.GetContext(ctx, &user, query, identifier)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("AuthRepository:GetUserByIdentifier:Error:", err)
		return nil, err
	}
	return &user, nil
}

func (r *AuthRepository) SearchUsers(ctx context.Context, query string, limit int) ([]entity.User, error) {
	sqlQuery := `
		SELECT ` + userColumns + `
		FROM users
		WHERE is_active AND (username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY username
		LIMIT $2
	`
	var users []entity.User
	err := r.db.SelectContext(ctx, &users, sqlQuery, query, limit)
	if err != nil {
		logger.Error("AuthRepository:SearchUsers:Error:", err)
		return nil, err
	}
	return users, nil
}
