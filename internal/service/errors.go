package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

// ── 排期模块业务错误 ──

var (
	ErrActivityNotFound    = pkgerrors.New(pkgerrors.KindNotFound, "活动不存在")
	ErrAppointmentNotFound = pkgerrors.New(pkgerrors.KindNotFound, "预约不存在")
	ErrPlaceNotFound       = pkgerrors.New(pkgerrors.KindNotFound, "场地不存在")
	ErrForbidden           = pkgerrors.New(pkgerrors.KindForbidden, "无权操作该资源")
	ErrActivityClosed      = pkgerrors.New(pkgerrors.KindValidation, "活动已取消或已完成，不能再修改")
	ErrAppointmentClosed   = pkgerrors.New(pkgerrors.KindValidation, "预约已取消，不能再修改")
	ErrSchedulingConflict  = pkgerrors.New(pkgerrors.KindSchedulingConflict, "排期冲突")
)

// ConflictError 场地在某天的时间窗口已被占用
type ConflictError struct {
	PlaceID     string
	Date        time.Time
	Requested   model.TimeWindow
	Existing    model.Appointment
	Suggestions []model.TimeWindow
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("排期冲突: 场地 %s 在 %s 的 %s 与预约 %s (%s) 重叠",
		e.PlaceID, model.FormatDate(e.Date), e.Requested, e.Existing.AppointmentID, e.Existing.Window())
}

func (e *ConflictError) Kind() pkgerrors.Kind { return pkgerrors.KindSchedulingConflict }

// Is 使 errors.Is(err, ErrSchedulingConflict) 成立
func (e *ConflictError) Is(target error) bool { return target == ErrSchedulingConflict }

// ── 内部辅助 ──

// notFoundOr 将 gorm.ErrRecordNotFound 映射为模块哨兵错误，其余视为存储失败
func notFoundOr(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return persistenceErr(err)
}

// persistenceErr 包装存储层错误；已带类别的错误原样返回
func persistenceErr(err error) error {
	if err == nil {
		return nil
	}
	var kinded pkgerrors.Kinded
	if errors.As(err, &kinded) || errors.Is(err, pkgerrors.ErrOptimisticLock) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.KindPersistence, "存储操作失败", err)
}

// mapLookupErr 按 ID 查询失败时使用：不存在映射为哨兵错误，其余错误记录日志后按存储失败返回
func mapLookupErr(logger *zap.Logger, what, id string, err error, notFound error) error {
	mapped := notFoundOr(err, notFound)
	if mapped != notFound {
		logger.Error("查询"+what+"失败", zap.String("id", id), zap.Error(err))
	}
	return mapped
}
