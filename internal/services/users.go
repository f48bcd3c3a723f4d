package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"keep-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const UserStatusActive = "ACTIVE"

type RegisterInput struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	FullName *string `json:"fullName" validate:"omitempty,max=200"`
}

// CreateUser inserts the login row and its profile in one transaction.
func CreateUser(ctx context.Context, db *sqlx.DB, tokens TokenService, input RegisterInput) (models.Profile, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := Validate(input); err != nil {
		return models.Profile{}, err
	}
	hash, err := tokens.HashPassword(input.Password)
	if err != nil {
		return models.Profile{}, err
	}
	userID := uuid.NewString()
	now := time.Now().UTC()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Profile{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
`, userID, input.Email, hash, UserStatusActive, now)
	if isUniqueViolation(err) {
		return models.Profile{}, ErrConflict("Email already registered")
	}
	if err != nil {
		return models.Profile{}, err
	}
	if err := ensureProfile(ctx, tx, userID, input.Email, trimPtr(input.FullName)); err != nil {
		return models.Profile{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Profile{}, err
	}
	return models.Profile{
		ID:        userID,
		Email:     input.Email,
		FullName:  trimPtr(input.FullName),
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func FindUserByEmail(ctx context.Context, db *sqlx.DB, email string) (models.User, error) {
	var user models.User
	err := db.GetContext(ctx, &user, `
SELECT id, email, password_hash, status, created_at, updated_at, last_login_at
FROM users
WHERE lower(email) = lower($1)
`, strings.TrimSpace(email))
	return user, err
}

func FetchRole(ctx context.Context, db *sqlx.DB, userID string) (string, error) {
	var role string
	err := db.GetContext(ctx, &role, `SELECT role FROM profiles WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleUser, nil
	}
	return role, err
}

func SetLastLogin(ctx context.Context, db *sqlx.DB, userID string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now().UTC(), userID)
	return err
}

func GetUserStatus(ctx context.Context, db *sqlx.DB, userID string) (string, error) {
	var status sql.NullString
	err := db.GetContext(ctx, &status, `SELECT status FROM users WHERE id = $1`, userID)
	if err != nil {
		return "", err
	}
	if status.Valid {
		return status.String, nil
	}
	return "", nil
}
