package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Place       PlaceRepository
	Activity    ActivityRepository
	Appointment AppointmentRepository
	Lock        LockRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		Place:       NewPlaceRepo(db),
		Activity:    NewActivityRepo(db),
		Appointment: NewAppointmentRepo(db),
		Lock:        NewLockRepo(db),
	}
}

// Transaction 在单个事务内执行 fn，fn 返回错误或 panic 时整体回滚
// 未绑定数据库（mock）时直接以自身调用 fn
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// ── 错误判定 ──

// PostgreSQL SQLSTATE
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// IsRetryable 序列化失败与死锁可以整体重试事务
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
	}
	return false
}
