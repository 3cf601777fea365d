package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adcampaign/backend/internal/models"
	"github.com/adcampaign/backend/pkg/utils"
)

// Directory is the subset of user/role persistence the bootstrap needs.
// *Repository satisfies it.
type Directory interface {
	RoleExists(ctx context.Context, name string) (bool, error)
	CreateRole(ctx context.Context, name string) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash, fullName string, role models.Role) (*models.User, error)
}

// Bootstrap ensures the required roles and the default administrator account
// exist. It runs once at startup, before the server accepts traffic, and is
// idempotent: existence checks short-circuit creation on an initialized store.
func Bootstrap(ctx context.Context, dir Directory, logger *zap.Logger, adminEmail, adminPassword string) error {
	for _, role := range models.RequiredRoles {
		exists, err := dir.RoleExists(ctx, string(role))
		if err != nil {
			return fmt.Errorf("check role %s: %w", role, err)
		}
		if exists {
			continue
		}
		if err := dir.CreateRole(ctx, string(role)); err != nil {
			return fmt.Errorf("create role %s: %w", role, err)
		}
		logger.Info("role created", zap.String("role", string(role)))
	}

	admin, err := dir.GetByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("look up admin account: %w", err)
	}
	if admin != nil {
		return nil
	}

	hash, err := utils.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := dir.Create(ctx, adminEmail, hash, "Administrator", models.RoleAdmin); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	logger.Info("default admin account created", zap.String("email", adminEmail))
	return nil
}
