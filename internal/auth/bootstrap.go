package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/timonlabs/studyshare/internal/models"
	"github.com/timonlabs/studyshare/internal/store"
)

// SeedDefaultUsers creates the bootstrap admin and user accounts when they
// are missing. Accounts whose password is not configured are skipped, so a
// deployment never ships with a known default credential.
func SeedDefaultUsers(ctx context.Context, users UserStore, adminPassword, userPassword string) error {
	if err := seedUser(ctx, users, "admin", adminPassword, models.RoleAdmin); err != nil {
		return err
	}
	return seedUser(ctx, users, "user", userPassword, models.RoleUser)
}

func seedUser(ctx context.Context, users UserStore, username, password, role string) error {
	if password == "" {
		log.Printf("seed: no password configured for %q, skipping", username)
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash %s password: %w", username, err)
	}

	_, err = users.CreateUser(ctx, username, string(hashed), role)
	if errors.Is(err, store.ErrDuplicateUser) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed %s: %w", username, err)
	}

	log.Printf("seed: created default %s account %q", role, username)
	return nil
}
