package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/database"
	"github.com/taskmaster/tasknote/internal/ports"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.DB.ExecContext(ctx, `
		INSERT INTO users (id, nickname, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		user.ID, user.Nickname, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return entities.ErrUserExists
		}
		return storageError("create user", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByNickname(ctx context.Context, nickname string) (*entities.User, error) {
	var user entities.User
	err := r.db.DB.GetContext(ctx, &user,
		`SELECT id, nickname, password_hash, created_at FROM users WHERE nickname = ?`, nickname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, storageError("get user by nickname", err)
	}

	return &user, nil
}
