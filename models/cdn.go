package models

import (
	"errors"
	"server/db"
	"server/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CDN is a thin scope record tying a display name to a bucket and an
// optional key prefix. Invites always target exactly one CDN.
type CDN struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt   int64          `json:"createdAt"`
	UpdatedAt   int64          `json:"updatedAt"`
	Name        string         `gorm:"type:varchar(100)" json:"name"`
	Description string         `gorm:"type:varchar(500)" json:"description"`
	BucketID    uint64         `json:"bucketId"`
	Bucket      storage.Bucket `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"bucket"`
	Prefix      string         `gorm:"type:varchar(200)" json:"prefix"`
	CreatedByID uint64         `json:"createdById"`
	CreatedBy   User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

func (c *CDN) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CDNByID loads a CDN with its bucket preloaded.
func CDNByID(id string) (*CDN, error) {
	var cdn CDN
	err := db.Instance.Preload("Bucket").First(&cdn, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cdn, nil
}
