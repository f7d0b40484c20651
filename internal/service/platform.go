package service

import (
	"context"

	"spendshare/internal/model"
	"spendshare/internal/repository"
)

// PlatformService exposes the shopping platform catalog.
type PlatformService struct {
	repo repository.PlatformRepository
}

func NewPlatformService(repo repository.PlatformRepository) *PlatformService {
	return &PlatformService{repo: repo}
}

func (s *PlatformService) List(ctx context.Context) ([]model.Platform, error) {
	return s.repo.List(ctx)
}

func (s *PlatformService) GetByID(ctx context.Context, id int64) (*model.Platform, error) {
	return s.repo.GetByID(ctx, id)
}
