package mysql

import (
	"context"

	"gorm.io/gorm"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

// ReconcileRepository 跨存储补偿任务的 outbox 表
type ReconcileRepository struct {
	DB *gorm.DB
}

func NewReconcileRepository(db *gorm.DB) *ReconcileRepository {
	return &ReconcileRepository{DB: db}
}

func (r *ReconcileRepository) Enqueue(ctx context.Context, task *model.ReconcileTask) error {
	task.Status = model.TaskPending
	return pkg.Store("reconcile.enqueue", r.DB.WithContext(ctx).Create(task).Error)
}

// ListPending 按 id 顺序取一批待处理任务
func (r *ReconcileRepository) ListPending(ctx context.Context, batchSize int) ([]model.ReconcileTask, error) {
	var list []model.ReconcileTask
	if err := r.DB.WithContext(ctx).
		Where("status = ?", model.TaskPending).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, pkg.Store("reconcile.list", err)
	}
	return list, nil
}

// RetryUpdate 失败重试：保持待处理，重试次数加一
func (r *ReconcileRepository) RetryUpdate(ctx context.Context, id uint64, reason string) error {
	return pkg.Store("reconcile.retry", r.DB.WithContext(ctx).Model(&model.ReconcileTask{}).Where("id = ?", id).
		Updates(map[string]any{"retry": gorm.Expr("retry + 1"), "reason": reason}).Error)
}

func (r *ReconcileRepository) MarkDone(ctx context.Context, id uint64) error {
	return pkg.Store("reconcile.done", r.DB.WithContext(ctx).Model(&model.ReconcileTask{}).Where("id = ?", id).
		Update("status", model.TaskDone).Error)
}

func (r *ReconcileRepository) MarkFailed(ctx context.Context, id uint64, reason string) error {
	return pkg.Store("reconcile.failed", r.DB.WithContext(ctx).Model(&model.ReconcileTask{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.TaskFailed, "reason": reason}).Error)
}
