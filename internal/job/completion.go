package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/service"
)

// DefaultCompletionSpec 每天 00:10 执行
const DefaultCompletionSpec = "10 0 * * *"

// 单次执行的超时
const runTimeout = 2 * time.Minute

// CompletionJob 定时将已过最后一天的活动标记为完成
type CompletionJob struct {
	lifecycle service.LifecycleService
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewCompletionJob 创建 CompletionJob
func NewCompletionJob(lifecycle service.LifecycleService, loc *time.Location, logger *zap.Logger) *CompletionJob {
	if loc == nil {
		loc = time.UTC
	}
	return &CompletionJob{
		lifecycle: lifecycle,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// Run 以本地时区的“今天”为基准执行一次
// 日期按 UTC 零点存储，这里取本地日历日再换算
func (j *CompletionJob) Run(ctx context.Context) ([]string, error) {
	local := j.now().In(j.loc)
	asOf := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	completed, err := j.lifecycle.CompleteExpired(ctx, asOf)
	if err != nil {
		j.logger.Error("批量完成过期活动失败", zap.String("as_of", model.FormatDate(asOf)), zap.Error(err))
		return nil, err
	}

	j.logger.Info("批量完成过期活动",
		zap.String("as_of", model.FormatDate(asOf)),
		zap.Int("completed", len(completed)),
	)
	return completed, nil
}

// ── 调度器 ──

// Scheduler 定时任务调度器
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler 按配置注册定时任务；未启用时返回的调度器不包含任何任务
func NewScheduler(cfg *config.JobsConfig, job *CompletionJob, logger *zap.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(job.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if cfg.CompletionEnabled {
		spec := cfg.CompletionCron
		if spec == "" {
			spec = DefaultCompletionSpec
		}
		if _, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
			defer cancel()
			_, _ = job.Run(ctx)
		}); err != nil {
			return nil, fmt.Errorf("注册完成任务失败 (%q): %w", spec, err)
		}
		logger.Info("已注册过期活动完成任务", zap.String("cron", spec), zap.String("timezone", job.loc.String()))
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start 启动调度器（非阻塞）
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("等待定时任务结束超时")
	}
}

// Entries 已注册的任务数
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger 将 cron 的日志接入 zap
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
