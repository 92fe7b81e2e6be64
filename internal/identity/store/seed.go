package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trustrent/internal/identity/models"
	"trustrent/internal/identity/service"
	"trustrent/internal/platform/config"
	id "trustrent/pkg/domain"
	"trustrent/pkg/platform/sentinel"
)

// SeedBootstrapAdmin creates the configured sys_admin account in the verified
// state. Registration can never produce a sys_admin, so the first reviewer
// has to come from configuration. Safe to run on every boot: an existing
// account (matched by email) is left untouched.
func SeedBootstrapAdmin(ctx context.Context, users service.UserStore, cfg config.BootstrapAdmin, logger *slog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.InfoContext(ctx, "bootstrap admin not configured; skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	admin, err := models.NewUser(id.NewUserID(),
		"Platform", "Administrator",
		cfg.Email, "n/a",
		string(hash),
		models.RoleSysAdmin, models.IDTypeGhanaCard, "BOOTSTRAP-"+cfg.Email,
		now,
	)
	if err != nil {
		return err
	}
	// Seeded admins skip review; nobody exists yet to review them.
	admin.VerificationState = models.StateVerified
	admin.VerifiedAt = &now
	admin.VerifiedBy = "bootstrap"

	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			logger.DebugContext(ctx, "bootstrap admin already present", "email", cfg.Email)
			return nil
		}
		return err
	}

	logger.InfoContext(ctx, "bootstrap admin seeded", "email", cfg.Email, "user_id", admin.ID.String())
	return nil
}
