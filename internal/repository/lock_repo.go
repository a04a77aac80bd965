package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// LockRepository 事务级咨询锁
type LockRepository interface {
	// LockPlaceDate 锁定 (场地, 日期)，事务提交或回滚时自动释放
	// 必须在事务连接上调用，否则锁会在语句结束后立即释放
	LockPlaceDate(ctx context.Context, placeID string, date time.Time) error
}

type lockRepo struct {
	db *gorm.DB
}

// NewLockRepo 创建 LockRepository 实例
func NewLockRepo(db *gorm.DB) LockRepository {
	return &lockRepo{db: db}
}

// PlaceDateLockKey 咨询锁的键
func PlaceDateLockKey(placeID string, date time.Time) string {
	return fmt.Sprintf("agenda:place:%s:%s", placeID, date.Format("2006-01-02"))
}

func (r *lockRepo) LockPlaceDate(ctx context.Context, placeID string, date time.Time) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", PlaceDateLockKey(placeID, date)).
		Error
}
