package domain

import (
	"time"

	"gorm.io/datatypes"
)

// WorkspaceSnapshot is the persisted form of one user's workspace. Brand and
// State hold the JSON encodings of BrandInfo and GenerationState.
type WorkspaceSnapshot struct {
	UserID    string         `gorm:"column:user_id;primaryKey;size:255" json:"userId"`
	Phase     string         `gorm:"column:phase;not null;default:config" json:"phase"`
	Brand     datatypes.JSON `gorm:"column:brand" json:"brand,omitempty"`
	State     datatypes.JSON `gorm:"column:state" json:"state"`
	Revision  int64          `gorm:"column:revision;not null;default:0" json:"revision"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (WorkspaceSnapshot) TableName() string { return "workspace_snapshot" }
