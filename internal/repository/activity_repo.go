package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

// ActivityFilter 活动列表筛选条件
// From/To 非空时只返回在该日期区间内（含两端）至少有一个预约的活动
type ActivityFilter struct {
	From    *time.Time
	To      *time.Time
	Status  model.ActivityStatus
	OwnerID string
}

// ActivityRepository 活动数据访问接口
type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	GetByID(ctx context.Context, id string) (*model.Activity, error)
	// GetByIDForUpdate 事务内读取活动并加行锁，变更其预约前先取得该锁
	GetByIDForUpdate(ctx context.Context, id string) (*model.Activity, error)
	GetByIDWithAppointments(ctx context.Context, id string) (*model.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]model.Activity, error)
	ListExpired(ctx context.Context, asOf time.Time) ([]model.Activity, error)
	Update(ctx context.Context, activity *model.Activity) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepo 创建 ActivityRepository 实例
func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, activity *model.Activity) error {
	// 预约由调用方在同一事务内批量写入，这里不级联
	return r.db.WithContext(ctx).Omit("Appointments").Create(activity).Error
}

func (r *activityRepo) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", id).
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("activity_id = ?", id).
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepo) GetByIDWithAppointments(ctx context.Context, id string) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.WithContext(ctx).
		Preload("Appointments", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, start_time ASC, appointment_id ASC")
		}).
		Where("activity_id = ?", id).
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepo) List(ctx context.Context, filter ActivityFilter) ([]model.Activity, error) {
	var activities []model.Activity
	db := r.db.WithContext(ctx).Model(&model.Activity{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.OwnerID != "" {
		db = db.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.From != nil || filter.To != nil {
		sub := r.db.Model(&model.Appointment{}).Select("activity_id")
		if filter.From != nil {
			sub = sub.Where("date >= ?", *filter.From)
		}
		if filter.To != nil {
			sub = sub.Where("date <= ?", *filter.To)
		}
		db = db.Where("activity_id IN (?)", sub)
	}

	err := db.Order("start_date ASC, created_at ASC").Find(&activities).Error
	return activities, err
}

func (r *activityRepo) ListExpired(ctx context.Context, asOf time.Time) ([]model.Activity, error) {
	var activities []model.Activity
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ActivityScheduled).
		Where("COALESCE(CASE WHEN recurrence = ? THEN start_date ELSE end_date END, start_date) < ?",
			model.RecurrenceSingle, asOf).
		Order("start_date ASC").
		Find(&activities).Error
	return activities, err
}

func (r *activityRepo) Update(ctx context.Context, activity *model.Activity) error {
	oldVersion := activity.Version
	result := r.db.WithContext(ctx).
		Model(activity).
		Where("activity_id = ? AND version = ?", activity.ActivityID, oldVersion).
		Updates(map[string]interface{}{
			"name":          activity.Name,
			"capacity":      activity.Capacity,
			"status":        activity.Status,
			"cancel_reason": activity.CancelReason,
			"cancelled_at":  activity.CancelledAt,
			"completed_at":  activity.CompletedAt,
			"updated_by":    activity.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	activity.Version = oldVersion + 1
	return nil
}

func (r *activityRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Activity{}).
		Where("activity_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
