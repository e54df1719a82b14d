package models

import "time"

// TaskTracking is the completion overlay, the only table this service writes.
// Tasks themselves are derived per request; the overlay survives re-derivation
// because task ids are reproducible from the underlying events.
type TaskTracking struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID    string     `gorm:"column:tenant_id;uniqueIndex:uq_task_tracking_key"`
	TaskID      string     `gorm:"column:task_id;uniqueIndex:uq_task_tracking_key"`
	TaskType    string     `gorm:"column:task_type;uniqueIndex:uq_task_tracking_key"`
	Completed   bool       `gorm:"column:completed;not null;default:false"`
	Notes       string     `gorm:"column:notes"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CompletedBy string     `gorm:"column:completed_by"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (TaskTracking) TableName() string { return "task_tracking" }
