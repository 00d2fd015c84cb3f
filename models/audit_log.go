package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionInviteCreated   = "INVITE_CREATED"
	ActionInviteUpdated   = "INVITE_UPDATED"
	ActionInviteRevoked   = "INVITE_REVOKED"
	ActionInviteRestored  = "INVITE_RESTORED"
	ActionUploadRequested = "INVITE_UPLOAD_REQUESTED"
	ActionUploadSucceeded = "INVITE_UPLOAD_SUCCEEDED"
	ActionUploadFailed    = "INVITE_UPLOAD_FAILED"
	ActionCDNCreated      = "CDN_CREATED"
	ActionCDNUpdated      = "CDN_UPDATED"
	ActionCDNDeleted      = "CDN_DELETED"
	ActionFileDeleted     = "FILE_DELETED"
)

// AuditLog rows are append-only. Anonymous actors are recorded as
// "invite:<label>", administrators as "user:<id>".
type AuditLog struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt int64  `json:"createdAt"`
	Actor     string `gorm:"type:varchar(150);index" json:"actor"`
	Action    string `gorm:"type:varchar(50);index" json:"action"`
	Details   string `gorm:"type:text" json:"details"` // JSON object
	IP        string `gorm:"type:varchar(50)" json:"ip"`
	UserAgent string `gorm:"type:varchar(300)" json:"userAgent"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
