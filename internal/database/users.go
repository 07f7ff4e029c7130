package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"reservio/internal/domain"
	"reservio/internal/models"
)

// CreateUser inserts a user account.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	u.Active = true
	u.CreatedAt = time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, phone, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Phone, u.Role, u.Active, u.CreatedAt,
	)
	return err
}

// GetUser loads an active user by id.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, role, active, created_at
		FROM users WHERE id = ? AND active = 1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
