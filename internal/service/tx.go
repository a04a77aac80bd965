package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
)

// runInTx 在事务内执行 fn；遇到序列化失败或死锁时整体重试，最多 retries 次
func runInTx(ctx context.Context, repo *repository.Repository, retries int, logger *zap.Logger, fn func(txRepo *repository.Repository) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		err = repo.Transaction(ctx, fn)
		if err == nil || !repository.IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("事务冲突，重试",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", retries),
			zap.Error(err),
		)
	}
	return err
}

// lockOpenActivity 事务内锁定活动行并确认其未关闭
// 与 CancelActivity 取同一把行锁，级联取消与新增、修改预约因此串行
func lockOpenActivity(ctx context.Context, tx *repository.Repository, id string) error {
	activity, err := tx.Activity.GetByIDForUpdate(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrActivityNotFound)
	}
	if activity.IsClosed() {
		return ErrActivityClosed
	}
	return nil
}
