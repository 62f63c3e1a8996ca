package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"opticart/internal/model"
	"opticart/internal/repository"
)

var adminFlags struct {
	email    string
	username string
	password string
}

// manage create-admin --email --username [--password]
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator, or promote an existing user",
	Long:  "Creates a verified administrator account. If the email is already registered the user is promoted instead. The password falls back to ADMIN_PASSWORD.",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminFlags.password
		if password == "" {
			password = os.Getenv("ADMIN_PASSWORD")
		}
		e, err := boot()
		if err != nil {
			return err
		}
		defer e.close()

		user, created, err := ensureAdmin(cmd.Context(), repository.New(e.db).Users, adminFlags.email, adminFlags.username, password, time.Now())
		if err != nil {
			return err
		}
		e.log.Info("administrator ready", "id", user.ID, "email", user.Email, "created", created)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "administrator email")
	createAdminCmd.Flags().StringVar(&adminFlags.username, "username", "", "username for a new account")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "password for a new account")
	_ = createAdminCmd.MarkFlagRequired("email")
}

// ensureAdmin promotes the user registered under email, or creates a verified
// administrator when there is none.
func ensureAdmin(ctx context.Context, users repository.UserRepository, email, username, password string, now time.Time) (*model.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, errors.New("email is required")
	}

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.IsAdmin = true
		if err := users.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("promote %s: %w", email, err)
		}
		return existing, false, nil
	case !repository.IsNotFound(err):
		return nil, false, fmt.Errorf("look up %s: %w", email, err)
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, false, errors.New("username and password are required for a new administrator")
	}
	taken, err := users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if taken {
		return nil, false, fmt.Errorf("username %q is already taken", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Email:           email,
		Username:        username,
		PasswordHash:    string(hash),
		IsAdmin:         true,
		EmailVerifiedAt: &now,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create %s: %w", email, err)
	}
	return user, true, nil
}
