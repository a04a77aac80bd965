package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

// AppointmentFilter 预约列表筛选条件（日期区间含两端）
type AppointmentFilter struct {
	From       *time.Time
	To         *time.Time
	PlaceID    string
	ActivityID string
	Status     model.AppointmentStatus
}

// AppointmentRepository 预约数据访问接口
type AppointmentRepository interface {
	BatchCreate(ctx context.Context, appointments []model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	// ListScheduledByPlaceAndDate 冲突检测用：按 (start_time, appointment_id) 排序
	ListScheduledByPlaceAndDate(ctx context.Context, placeID string, date time.Time) ([]model.Appointment, error)
	ListByActivity(ctx context.Context, activityID string) ([]model.Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment) error
	// CancelScheduledByActivity 只取消仍为 scheduled 的预约，已取消的保留原因
	CancelScheduledByActivity(ctx context.Context, activityID, reason, cancelledBy string, at time.Time) (int64, error)
	DeleteByActivity(ctx context.Context, activityID string, deletedBy string) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type appointmentRepo struct {
	db *gorm.DB
}

// NewAppointmentRepo 创建 AppointmentRepository 实例
func NewAppointmentRepo(db *gorm.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) BatchCreate(ctx context.Context, appointments []model.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit("Activity", "Place").
		CreateInBatches(&appointments, 200).Error
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", id).
		First(&appointment).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepo) ListScheduledByPlaceAndDate(ctx context.Context, placeID string, date time.Time) ([]model.Appointment, error) {
	var appointments []model.Appointment
	err := r.db.WithContext(ctx).
		Where("place_id = ? AND date = ? AND status = ?", placeID, date, model.AppointmentScheduled).
		Order("start_time ASC, appointment_id ASC").
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepo) ListByActivity(ctx context.Context, activityID string) ([]model.Appointment, error) {
	var appointments []model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Place").
		Where("activity_id = ?", activityID).
		Order("date ASC, start_time ASC, appointment_id ASC").
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepo) List(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error) {
	var appointments []model.Appointment
	db := r.db.WithContext(ctx)

	if filter.From != nil {
		db = db.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("date <= ?", *filter.To)
	}
	if filter.PlaceID != "" {
		db = db.Where("place_id = ?", filter.PlaceID)
	}
	if filter.ActivityID != "" {
		db = db.Where("activity_id = ?", filter.ActivityID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	err := db.Order("date ASC, start_time ASC, appointment_id ASC").Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepo) Update(ctx context.Context, appointment *model.Appointment) error {
	oldVersion := appointment.Version
	result := r.db.WithContext(ctx).
		Model(appointment).
		Where("appointment_id = ? AND version = ?", appointment.AppointmentID, oldVersion).
		Updates(map[string]interface{}{
			"place_id":      appointment.PlaceID,
			"date":          appointment.Date,
			"start_time":    appointment.StartTime,
			"end_time":      appointment.EndTime,
			"status":        appointment.Status,
			"cancel_reason": appointment.CancelReason,
			"cancelled_at":  appointment.CancelledAt,
			"updated_by":    appointment.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	appointment.Version = oldVersion + 1
	return nil
}

func (r *appointmentRepo) CancelScheduledByActivity(ctx context.Context, activityID, reason, cancelledBy string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("activity_id = ? AND status = ?", activityID, model.AppointmentScheduled).
		Updates(map[string]interface{}{
			"status":        model.AppointmentCancelled,
			"cancel_reason": reason,
			"cancelled_at":  at,
			"updated_by":    cancelledBy,
			"version":       gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepo) DeleteByActivity(ctx context.Context, activityID string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("activity_id = ?", activityID).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *appointmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("appointment_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
