package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
)

// PlaceRepository 场地数据访问接口（场地由外部服务维护，这里只读）
type PlaceRepository interface {
	GetByID(ctx context.Context, id string) (*model.Place, error)
	List(ctx context.Context, includeInactive bool) ([]model.Place, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Place, error)
}

type placeRepo struct {
	db *gorm.DB
}

// NewPlaceRepo 创建 PlaceRepository 实例
func NewPlaceRepo(db *gorm.DB) PlaceRepository {
	return &placeRepo{db: db}
}

func (r *placeRepo) GetByID(ctx context.Context, id string) (*model.Place, error) {
	var place model.Place
	err := r.db.WithContext(ctx).
		Where("place_id = ?", id).
		First(&place).Error
	if err != nil {
		return nil, err
	}
	return &place, nil
}

func (r *placeRepo) List(ctx context.Context, includeInactive bool) ([]model.Place, error) {
	var places []model.Place
	db := r.db.WithContext(ctx)

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order("name ASC").Find(&places).Error
	return places, err
}

func (r *placeRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Place, error) {
	if len(ids) == 0 {
		return []model.Place{}, nil
	}
	var places []model.Place
	err := r.db.WithContext(ctx).
		Where("place_id IN ?", ids).
		Find(&places).Error
	return places, err
}
