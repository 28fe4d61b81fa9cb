package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"polycare/m/domain"
	"polycare/m/internal/store"
)

// EnsureAdmin creates the bootstrap admin account unless a user with that
// username exists. Empty credentials skip the step.
func EnsureAdmin(ctx context.Context, s *store.Store, log *zap.Logger, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	now := time.Now().UTC()
	if err := s.CreateUser(ctx, &domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  string(hashed),
		Role:      domain.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return err
	}
	log.Info("bootstrap admin created", zap.String("username", username))
	return nil
}
