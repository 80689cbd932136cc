package model

import "time"

const (
	TaskRoleDelete      = "role.delete"
	TaskCommunityDelete = "community.delete"
)

const (
	TaskPending int8 = 0
	TaskDone    int8 = 1
	TaskFailed  int8 = 2
)

// ReconcileTask 跨存储补偿任务表
type ReconcileTask struct {
	ID          uint64 `gorm:"primaryKey"`
	Kind        string `gorm:"size:32;not null;index"`
	CommunityID string `gorm:"size:64;not null"`
	UserID      string `gorm:"size:64"`
	Reason      string `gorm:"type:text"`
	Status      int8   `gorm:"not null;default:0;index;comment:'0=pending,1=done,2=failed'"`
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ReconcileTask) TableName() string { return "reconcile_tasks" }
