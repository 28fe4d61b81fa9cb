package store

import (
	"context"
	"fmt"

	"polycare/m/domain"
)

const userColumns = `id, username, password, role, full_name, phone_number, email, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Password, u.Role, u.FullName, u.PhoneNumber, u.Email, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = ?`, username); err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// UpdateUser saves the mutable profile fields and password hash.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	err := s.execOne(ctx, `UPDATE users SET password = ?, full_name = ?, phone_number = ?, email = ?, updated_at = ? WHERE id = ?`,
		u.Password, u.FullName, u.PhoneNumber, u.Email, u.UpdatedAt.UTC(), u.ID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
