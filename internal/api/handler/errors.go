package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/service"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/response"
)

// ── 业务错误码 ──

const (
	codeValidation          = 10001
	codeForbidden           = 10003
	codeInvalidRecurrence   = 20001
	codeSchedulingConflict  = 20002
	codeActivityClosed      = 20003
	codeAppointmentClosed   = 20004
	codeVersionConflict     = 20005
	codeActivityNotFound    = 21001
	codeAppointmentNotFound = 22001
	codePlaceNotFound       = 23001
)

// bindError 请求参数绑定失败
func bindError(c *gin.Context) {
	response.KindError(c, http.StatusBadRequest, codeValidation, string(pkgerrors.KindValidation), "参数校验失败", nil)
}

// fieldError 单个字段校验失败（handler 层解析的参数）
func fieldError(c *gin.Context, field, message string) {
	response.KindError(c, http.StatusBadRequest, codeValidation, string(pkgerrors.KindValidation), "参数校验失败",
		gin.H{"fields": []pkgerrors.FieldViolation{{Field: field, Message: message}}})
}

// handleServiceError 按错误类别统一映射 HTTP 状态码与业务码
func handleServiceError(c *gin.Context, err error) {
	var (
		conflict *service.ConflictError
		verr     *pkgerrors.ValidationError
	)

	switch {
	case errors.As(err, &conflict):
		response.KindError(c, http.StatusConflict, codeSchedulingConflict,
			string(pkgerrors.KindSchedulingConflict), "场地该时段已被占用", service.ToConflictDetail(conflict))

	case errors.As(err, &verr):
		code := codeValidation
		message := "参数校验失败"
		if verr.Kind() == pkgerrors.KindInvalidRecurrence {
			code = codeInvalidRecurrence
			message = "重复规则无效"
		}
		response.KindError(c, http.StatusBadRequest, code, string(verr.Kind()), message, gin.H{"fields": verr.Fields})

	// 已关闭状态的拒绝属于校验类错误，但语义上是资源状态冲突
	case errors.Is(err, service.ErrActivityClosed):
		sentinelError(c, http.StatusConflict, codeActivityClosed, service.ErrActivityClosed)
	case errors.Is(err, service.ErrAppointmentClosed):
		sentinelError(c, http.StatusConflict, codeAppointmentClosed, service.ErrAppointmentClosed)
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.KindError(c, http.StatusConflict, codeVersionConflict,
			string(pkgerrors.KindPersistence), pkgerrors.ErrOptimisticLock.Error(), nil)

	case errors.Is(err, service.ErrActivityNotFound):
		sentinelError(c, http.StatusNotFound, codeActivityNotFound, service.ErrActivityNotFound)
	case errors.Is(err, service.ErrAppointmentNotFound):
		sentinelError(c, http.StatusNotFound, codeAppointmentNotFound, service.ErrAppointmentNotFound)
	case errors.Is(err, service.ErrPlaceNotFound):
		sentinelError(c, http.StatusNotFound, codePlaceNotFound, service.ErrPlaceNotFound)
	case errors.Is(err, service.ErrForbidden):
		sentinelError(c, http.StatusForbidden, codeForbidden, service.ErrForbidden)

	default:
		// 交给访问日志记录细节，响应中不暴露
		_ = c.Error(err)
		response.InternalError(c)
	}
}

func sentinelError(c *gin.Context, status, code int, sentinel *pkgerrors.Error) {
	response.KindError(c, status, code, string(sentinel.Kind()), sentinel.Message(), nil)
}
