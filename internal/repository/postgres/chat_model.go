package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository"
)

// ChatModelRepository implements repository.ChatModelRepository using PostgreSQL
type ChatModelRepository struct {
	db *sqlx.DB
}

// NewChatModelRepository creates a new PostgreSQL model config repository
func NewChatModelRepository(db *sqlx.DB) repository.ChatModelRepository {
	return &ChatModelRepository{db: db}
}

// Create registers a new model config
func (r *ChatModelRepository) Create(ctx context.Context, model *models.ChatModel) error {
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}

	query := `
		INSERT INTO chat_models (id, name, model_id, ep_id, description, is_active)
		VALUES (:id, :name, :model_id, :ep_id, :description, :is_active)
	`

	_, err := r.db.NamedExecContext(ctx, query, model)
	return err
}

// GetByID retrieves a model config by primary key
func (r *ChatModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatModel, error) {
	var model models.ChatModel
	query := `
		SELECT id, name, model_id, ep_id, description, is_active
		FROM chat_models
		WHERE id = $1
	`

	if err := r.db.GetContext(ctx, &model, query, id); err != nil {
		return nil, err
	}

	return &model, nil
}

// GetByModelID retrieves a model config by its provider model identifier
func (r *ChatModelRepository) GetByModelID(ctx context.Context, modelID string) (*models.ChatModel, error) {
	var model models.ChatModel
	query := `
		SELECT id, name, model_id, ep_id, description, is_active
		FROM chat_models
		WHERE model_id = $1
	`

	if err := r.db.GetContext(ctx, &model, query, modelID); err != nil {
		return nil, err
	}

	return &model, nil
}

// List retrieves model configs, optionally filtered to active ones
func (r *ChatModelRepository) List(ctx context.Context, activeOnly bool) ([]*models.ChatModel, error) {
	var configs []*models.ChatModel
	query := `
		SELECT id, name, model_id, ep_id, description, is_active
		FROM chat_models
	`
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY name ASC"

	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, err
	}

	return configs, nil
}
