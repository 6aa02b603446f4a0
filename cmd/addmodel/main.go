package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/woodchat/woodchat-backend/internal/config"
	"github.com/woodchat/woodchat-backend/internal/database"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository/postgres"
)

// Operator tool: registers a chat model configuration. The API only lists
// model configs; adding them is a deployment concern.
func main() {
	name := flag.String("name", "", "display name (required)")
	modelID := flag.String("model-id", "", "provider model identifier (required)")
	epID := flag.String("ep-id", "", "provider endpoint id (optional)")
	description := flag.String("description", "", "description shown to users")
	active := flag.Bool("active", true, "make the model selectable")
	flag.Parse()

	if *name == "" || *modelID == "" {
		flag.Usage()
		os.Exit(2)
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

	model := &models.ChatModel{
		Name:        *name,
		ModelID:     *modelID,
		Description: *description,
		IsActive:    *active,
	}
	if *epID != "" {
		model.EpID = epID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := postgres.NewChatModelRepository(db.DB).Create(ctx, model); err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to create model:", err)
		os.Exit(1)
	}

	fmt.Printf("registered model %s (%s)\n", model.Name, model.ID)
}
