package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
)

// PlaceService 场地只读视图（场地的增删改由场地管理服务负责）
type PlaceService interface {
	GetByID(ctx context.Context, id string) (*dto.PlaceResponse, error)
	List(ctx context.Context, req *dto.PlaceListRequest) ([]dto.PlaceResponse, error)
}

type placeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPlaceService 创建 PlaceService 实例
func NewPlaceService(repo *repository.Repository, logger *zap.Logger) PlaceService {
	return &placeService{repo: repo, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *placeService) GetByID(ctx context.Context, id string) (*dto.PlaceResponse, error) {
	place, err := s.repo.Place.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(s.logger, "场地", id, err, ErrPlaceNotFound)
	}
	return toPlaceResponse(place), nil
}

// ────────────────────── List ──────────────────────

func (s *placeService) List(ctx context.Context, req *dto.PlaceListRequest) ([]dto.PlaceResponse, error) {
	places, err := s.repo.Place.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出场地失败", zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.PlaceResponse, 0, len(places))
	for i := range places {
		result = append(result, *toPlaceResponse(&places[i]))
	}
	return result, nil
}
