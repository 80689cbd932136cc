package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Yam_Community/internal/metrics"
	"Yam_Community/internal/model"
)

// TaskHandler 执行一种补偿任务
type TaskHandler func(ctx context.Context, task *model.ReconcileTask) error

// ReconcileRelayer 周期性拉取补偿任务表并执行
type ReconcileRelayer struct {
	tasks     ReconcileQueue
	handlers  map[string]TaskHandler
	interval  time.Duration
	batchSize int
	maxRetry  int
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewReconcileRelayer(tasks ReconcileQueue, handlers map[string]TaskHandler, interval time.Duration, batchSize, maxRetry int, log *zap.Logger, m *metrics.Metrics) *ReconcileRelayer {
	return &ReconcileRelayer{
		tasks:     tasks,
		handlers:  handlers,
		interval:  interval,
		batchSize: batchSize,
		maxRetry:  maxRetry,
		log:       orNop(log),
		metrics:   m,
	}
}

// Run 补偿任务启动器
func (r *ReconcileRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *ReconcileRelayer) drainOnce(ctx context.Context) {
	rows, err := r.tasks.ListPending(ctx, r.batchSize)
	if err != nil {
		r.log.Warn("reconcile query failed", zap.Error(err))
		return
	}
	for i := range rows {
		task := rows[i]
		handler, ok := r.handlers[task.Kind]
		if !ok {
			r.log.Error("no handler for reconcile task", zap.String("kind", task.Kind), zap.Uint64("id", task.ID))
			_ = r.tasks.MarkFailed(ctx, task.ID, "unknown kind")
			r.metrics.ReconcileTask(task.Kind, "failed")
			continue
		}
		if err = handler(ctx, &task); err != nil {
			if task.Retry+1 >= r.maxRetry {
				r.log.Error("reconcile task gave up",
					zap.String("kind", task.Kind),
					zap.String("community_id", task.CommunityID),
					zap.Int("retry", task.Retry+1),
					zap.Error(err))
				_ = r.tasks.MarkFailed(ctx, task.ID, err.Error())
				r.metrics.ReconcileTask(task.Kind, "failed")
				continue
			}
			_ = r.tasks.RetryUpdate(ctx, task.ID, err.Error())
			r.metrics.ReconcileTask(task.Kind, "retry")
			continue
		}
		_ = r.tasks.MarkDone(ctx, task.ID)
		r.metrics.ReconcileTask(task.Kind, "done")
	}
}

// CounterReconciler 定期用边的数量校正点赞数和评论数
type CounterReconciler struct {
	counters  CounterStore
	interval  time.Duration
	batchSize int
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewCounterReconciler(counters CounterStore, interval time.Duration, batchSize int, log *zap.Logger, m *metrics.Metrics) *CounterReconciler {
	return &CounterReconciler{
		counters:  counters,
		interval:  interval,
		batchSize: batchSize,
		log:       orNop(log),
		metrics:   m,
	}
}

// ReconcilerRun 对账定时任务启动器
func (r *CounterReconciler) ReconcilerRun(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

const maxRepairRounds = 20

// reconcileOnce 每轮最多修复 batchSize 个，修满则继续下一轮
func (r *CounterReconciler) reconcileOnce(ctx context.Context) {
	passes := []struct {
		target string
		repair func(context.Context, int) (int64, error)
	}{
		{string(model.LikeTargetPost), r.counters.RepairPostCounters},
		{string(model.LikeTargetComment), r.counters.RepairCommentCounters},
	}
	for _, p := range passes {
		for round := 0; round < maxRepairRounds; round++ {
			n, err := p.repair(ctx, r.batchSize)
			if err != nil {
				r.log.Warn("counter reconcile failed", zap.String("target", p.target), zap.Error(err))
				break
			}
			for i := int64(0); i < n; i++ {
				r.metrics.CounterRepaired(p.target)
			}
			if n > 0 {
				r.log.Info("counters repaired", zap.String("target", p.target), zap.Int64("count", n))
			}
			if n < int64(r.batchSize) {
				break
			}
		}
	}
}
