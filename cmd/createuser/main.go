package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/woodchat/woodchat-backend/internal/auth"
	"github.com/woodchat/woodchat-backend/internal/config"
	"github.com/woodchat/woodchat-backend/internal/database"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository/postgres"
)

// Operator tool: creates an account directly in the database, bypassing the
// email verification flow. Useful for bootstrapping a fresh deployment.
func main() {
	username := flag.String("username", "", "username (required)")
	email := flag.String("email", "", "email address (required)")
	password := flag.String("password", "", "password (required)")
	name := flag.String("name", "", "display name (defaults to username)")
	verified := flag.Bool("verified", true, "mark the email as verified")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := auth.ValidatePassword(*password); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to load configuration:", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to connect to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to run migrations:", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to hash password:", err)
		os.Exit(1)
	}

	displayName := *name
	if displayName == "" {
		displayName = *username
	}

	user := &models.User{
		ID:            uuid.New(),
		Username:      *username,
		Email:         *email,
		PasswordHash:  hash,
		Name:          displayName,
		Gender:        models.GenderUnspecified,
		EmailVerified: *verified,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := postgres.NewUserRepository(db.DB).Create(ctx, user); err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to create user:", err)
		os.Exit(1)
	}

	fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
}
