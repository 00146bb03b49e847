package models

import "time"

const (
	AnalysisTierBasic    = "basic"
	AnalysisTierAdvanced = "advanced"
)

// AnalysisLog keeps the generated advice so users can revisit it.
type AnalysisLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Tier      string    `gorm:"type:varchar(16);not null" json:"tier"`
	Model     string    `gorm:"type:varchar(100);not null" json:"model"`
	Analysis  string    `gorm:"type:text" json:"analysis"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
