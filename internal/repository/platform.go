package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"spendshare/internal/model"
)

type platformRepository struct {
	db *sqlx.DB
}

// NewPlatformRepository creates a new platform repository
func NewPlatformRepository(db *sqlx.DB) PlatformRepository {
	return &platformRepository{db: db}
}

// List returns the full platform catalog, alphabetically.
func (r *platformRepository) List(ctx context.Context) ([]model.Platform, error) {
	query := `SELECT id, name, domain, logo_url, verified FROM platforms ORDER BY name ASC`

	var platforms []model.Platform
	err := r.db.SelectContext(ctx, &platforms, query)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return platforms, nil
}

// GetByID retrieves a single platform.
func (r *platformRepository) GetByID(ctx context.Context, id int64) (*model.Platform, error) {
	query := `SELECT id, name, domain, logo_url, verified FROM platforms WHERE id = $1`

	var platform model.Platform
	err := r.db.GetContext(ctx, &platform, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrPlatformNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get platform: %w", err)
	}
	return &platform, nil
}
