package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UploadStatusSuccess = "SUCCESS"
	UploadStatusFailed  = "FAILED"
)

// InviteUpload is the immutable receipt for one committed upload. It is
// written exactly once, inside the same transaction that consumes a use of
// the parent invite, and never updated afterwards.
type InviteUpload struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	InviteID    string `gorm:"type:varchar(36);index" json:"inviteId"`
	Key         string `gorm:"type:varchar(1024)" json:"key"`
	Size        int64  `json:"size"`
	ContentType string `gorm:"type:varchar(120)" json:"contentType"`
	Extension   string `gorm:"type:varchar(20)" json:"extension"`
	ETag        string `gorm:"type:varchar(100)" json:"etag,omitempty"`
	IP          string `gorm:"type:varchar(50)" json:"ip"`
	UserAgent   string `gorm:"type:varchar(300)" json:"userAgent"`
	UploadedAt  int64  `gorm:"autoCreateTime" json:"uploadedAt"`
	Status      string `gorm:"type:varchar(10)" json:"status"`
	Error       string `gorm:"type:varchar(500)" json:"error,omitempty"`
}

func (u *InviteUpload) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
