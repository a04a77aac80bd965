package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// 领域事件路由键
const (
	EventActivityCreated      = "activity.created"
	EventActivityCancelled    = "activity.cancelled"
	EventActivityCompleted    = "activity.completed"
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentUpdated   = "appointment.updated"
	EventAppointmentCancelled = "appointment.cancelled"
)

const publishTimeout = 3 * time.Second

// EventPublisher 领域事件发布接口（pkg/broker 提供 RabbitMQ 实现）
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// ActivityEvent 活动事件载荷
type ActivityEvent struct {
	ActivityID     string   `json:"activity_id"`
	Name           string   `json:"name"`
	OwnerID        string   `json:"owner_id"`
	Status         string   `json:"status"`
	Reason         string   `json:"reason,omitempty"`
	AppointmentIDs []string `json:"appointment_ids,omitempty"`
	ActorID        string   `json:"actor_id,omitempty"`
}

// AppointmentEvent 预约事件载荷
type AppointmentEvent struct {
	AppointmentID string `json:"appointment_id"`
	ActivityID    string `json:"activity_id"`
	PlaceID       string `json:"place_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	ActorID       string `json:"actor_id"`
}

// publishEvent 事务提交后发布事件；失败只记录日志，不影响请求结果
func publishEvent(ctx context.Context, events EventPublisher, logger *zap.Logger, routingKey string, payload interface{}) {
	if events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := events.Publish(pubCtx, routingKey, payload); err != nil {
		logger.Warn("发布领域事件失败", zap.String("event", routingKey), zap.Error(err))
	}
}
