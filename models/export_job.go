package models

import "time"

const (
	ExportQueued     = "queued"
	ExportProcessing = "processing"
	ExportDone       = "done"
	ExportFailed     = "failed"
)

type ExportJob struct {
	JobID          string    `gorm:"column:job_id;primaryKey;size:36" json:"job_id"`
	RequestedBy    string    `gorm:"column:requested_by;size:36;index" json:"requested_by"`
	Format         string    `gorm:"column:format;size:10" json:"format"` // xlsx
	ResponseFilter string    `gorm:"column:response_filter;size:20" json:"response_filter,omitempty"`
	Status         string    `gorm:"column:status;size:20;default:'queued'" json:"status"`
	FilePath       *string   `gorm:"column:file_path;type:text" json:"-"`
	ErrorMsg       *string   `gorm:"column:error_msg;type:text" json:"error_msg,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ExportJob) TableName() string {
	return "export_jobs"
}
