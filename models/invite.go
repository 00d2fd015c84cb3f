package models

import (
	"errors"
	"log"
	"strconv"
	"time"

	"server/config"
	"server/db"
	"server/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InviteStatusActive  = "ACTIVE"
	InviteStatusRevoked = "REVOKED"
	InviteStatusExpired = "EXPIRED"
)

// Invite is the capability record behind an upload link: who may upload
// what, where to, how many times and until when. The raw token is returned
// exactly once at creation; only its hash is stored.
type Invite struct {
	ID                string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt         int64          `json:"createdAt"`
	UpdatedAt         int64          `json:"updatedAt"`
	TokenHash         string         `gorm:"type:varchar(64);index:uniq_invite_token_hash,unique" json:"-"`
	CDNID             string         `gorm:"type:varchar(36);index" json:"cdnId"`
	CDN               CDN            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Label             string         `gorm:"type:varchar(100)" json:"label"`
	AllowedMimeTypes  StringList     `gorm:"type:text" json:"allowedMimeTypes"`
	AllowedExtensions StringList     `gorm:"type:text" json:"allowedExtensions"`
	MaxSizeBytes      int64          `json:"maxSizeBytes"`
	MaxUses           *int64         `json:"maxUses"` // nil means unlimited
	RemainingUses     int64          `json:"remainingUses"`
	ExpiresAt         *time.Time     `json:"expiresAt"` // nil means never
	Status            string         `gorm:"type:varchar(10);index" json:"status"`
	UploadPrefix      string         `gorm:"type:varchar(300)" json:"uploadPrefix"` // already token-resolved
	NotifyEmails      StringList     `gorm:"type:text" json:"notifyEmails"`
	Notes             string         `gorm:"type:varchar(500)" json:"notes"`
	CreatedByID       uint64         `json:"createdById"`
	CreatedBy         User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Uploads           []InviteUpload `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

type InviteCreateParams struct {
	Label             string     `json:"label"`
	CDNID             string     `json:"cdnId"`
	AllowedMimeTypes  []string   `json:"allowedMimeTypes"`
	AllowedExtensions []string   `json:"allowedExtensions"`
	MaxSizeBytes      int64      `json:"maxSizeBytes"`
	MaxUses           *int64     `json:"maxUses"`
	ExpiresAt         *time.Time `json:"expiresAt"`
	UploadPrefix      string     `json:"uploadPrefix"`
	NotifyEmails      []string   `json:"notifyEmails"`
	Notes             string     `json:"notes"`
}

// InviteUpdateParams is a partial patch; nil fields stay untouched.
type InviteUpdateParams struct {
	Label             *string    `json:"label"`
	CDNID             *string    `json:"cdnId"`
	AllowedMimeTypes  []string   `json:"allowedMimeTypes"`
	AllowedExtensions []string   `json:"allowedExtensions"`
	MaxSizeBytes      *int64     `json:"maxSizeBytes"`
	MaxUses           *int64     `json:"maxUses"`
	MaxUsesSet        bool       `json:"-"`
	ExpiresAt         *time.Time `json:"expiresAt"`
	ExpiresAtSet      bool       `json:"-"`
	UploadPrefix      *string    `json:"uploadPrefix"`
	NotifyEmails      []string   `json:"notifyEmails"`
	Notes             *string    `json:"notes"`
}

func validateInviteParams(p *InviteCreateParams) error {
	if p.Label == "" {
		return NewValidationError("label", "label must not be empty")
	}
	if len(p.Label) > 100 {
		return NewValidationError("label", "label must be at most 100 characters")
	}
	if p.CDNID == "" {
		return NewValidationError("cdnId", "cdnId must not be empty")
	}
	if len(p.AllowedMimeTypes) == 0 {
		return NewValidationError("allowedMimeTypes", "at least one MIME type must be allowed")
	}
	if len(p.AllowedExtensions) == 0 {
		return NewValidationError("allowedExtensions", "at least one extension must be allowed")
	}
	if p.MaxSizeBytes <= 0 {
		return NewValidationError("maxSizeBytes", "maxSizeBytes must be positive")
	}
	if p.MaxUses != nil && *p.MaxUses <= 0 {
		return NewValidationError("maxUses", "maxUses must be positive or null for unlimited")
	}
	return nil
}

// InviteCreate validates, resolves the upload prefix, issues the token and
// persists the invite. The second return value is the raw token; it is not
// recoverable afterwards.
func InviteCreate(p *InviteCreateParams, createdBy *User) (*Invite, string, error) {
	if err := validateInviteParams(p); err != nil {
		return nil, "", err
	}
	if _, err := CDNByID(p.CDNID); err != nil {
		return nil, "", err
	}

	token := utils.GenerateInviteToken()
	prefix := p.UploadPrefix
	if prefix == "" {
		prefix = config.DEFAULT_UPLOAD_PREFIX
	}

	remaining := int64(0)
	if p.MaxUses != nil {
		remaining = *p.MaxUses
	}
	invite := Invite{
		ID:                uuid.NewString(),
		TokenHash:         utils.HashInviteToken(token),
		CDNID:             p.CDNID,
		Label:             p.Label,
		AllowedMimeTypes:  p.AllowedMimeTypes,
		AllowedExtensions: p.AllowedExtensions,
		MaxSizeBytes:      p.MaxSizeBytes,
		MaxUses:           p.MaxUses,
		RemainingUses:     remaining,
		ExpiresAt:         p.ExpiresAt,
		Status:            InviteStatusActive,
		UploadPrefix:      utils.ResolvePrefixTemplate(prefix, p.Label, time.Now()),
		NotifyEmails:      p.NotifyEmails,
		Notes:             p.Notes,
		CreatedByID:       createdBy.ID,
	}
	if err := db.Instance.Create(&invite).Error; err != nil {
		return nil, "", err
	}
	return &invite, token, nil
}

func InviteByID(id string) (*Invite, error) {
	var invite Invite
	err := db.Instance.First(&invite, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// InviteByToken hashes the presented token and resolves the invite.
func InviteByToken(token string) (*Invite, error) {
	var invite Invite
	err := db.Instance.First(&invite, "token_hash = ?", utils.HashInviteToken(token)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// ObserveExpiry is the side-effecting part of a metadata read: an ACTIVE
// invite past its expiry transitions to EXPIRED and the transition is
// persisted so later reads short-circuit. Returns whether it transitioned.
func (i *Invite) ObserveExpiry(now time.Time) bool {
	if i.Status != InviteStatusActive || i.ExpiresAt == nil || !now.After(*i.ExpiresAt) {
		return false
	}
	i.Status = InviteStatusExpired
	if err := db.Instance.Model(i).Update("status", InviteStatusExpired).Error; err != nil {
		log.Printf("Cannot persist invite %s expiry: %v", i.ID, err)
	}
	return true
}

// IsUsable reports whether the invite accepts uploads right now.
func (i *Invite) IsUsable(now time.Time) bool {
	if i.Status != InviteStatusActive {
		return false
	}
	if i.ExpiresAt != nil && now.After(*i.ExpiresAt) {
		return false
	}
	if i.MaxUses != nil && i.RemainingUses <= 0 {
		return false
	}
	return true
}

// CheckUsable is IsUsable with the reason, for public endpoints.
func (i *Invite) CheckUsable(now time.Time) error {
	if i.Status != InviteStatusActive {
		return ErrNotActive
	}
	if i.ExpiresAt != nil && now.After(*i.ExpiresAt) {
		return ErrExpired
	}
	if i.MaxUses != nil && i.RemainingUses <= 0 {
		return ErrExhausted
	}
	return nil
}

func (i *Invite) CheckContentType(contentType string) *ValidationError {
	if !i.AllowedMimeTypes.Contains(contentType) {
		return NewValidationError("contentType", "content type "+contentType+" is not allowed", i.AllowedMimeTypes...)
	}
	return nil
}

func (i *Invite) CheckExtension(extension string) *ValidationError {
	if !i.AllowedExtensions.Contains(extension) {
		return NewValidationError("extension", "file extension "+extension+" is not allowed", i.AllowedExtensions...)
	}
	return nil
}

func (i *Invite) CheckSize(size int64) *ValidationError {
	if size <= 0 || size > i.MaxSizeBytes {
		return NewValidationError("size",
			"file size "+strconv.FormatInt(size, 10)+" bytes exceeds maximum "+strconv.FormatInt(i.MaxSizeBytes, 10)+" bytes")
	}
	return nil
}

// InviteUpdate applies a partial patch. Changing the label or the prefix
// template re-resolves the frozen upload prefix; changing maxUses resets
// remainingUses to the new budget.
func InviteUpdate(id string, p *InviteUpdateParams) (*Invite, error) {
	invite, err := InviteByID(id)
	if err != nil {
		return nil, err
	}
	if p.Label != nil {
		if *p.Label == "" {
			return nil, NewValidationError("label", "label must not be empty")
		}
		invite.Label = *p.Label
	}
	if p.CDNID != nil {
		if _, err := CDNByID(*p.CDNID); err != nil {
			return nil, err
		}
		invite.CDNID = *p.CDNID
	}
	if p.AllowedMimeTypes != nil {
		if len(p.AllowedMimeTypes) == 0 {
			return nil, NewValidationError("allowedMimeTypes", "at least one MIME type must be allowed")
		}
		invite.AllowedMimeTypes = p.AllowedMimeTypes
	}
	if p.AllowedExtensions != nil {
		if len(p.AllowedExtensions) == 0 {
			return nil, NewValidationError("allowedExtensions", "at least one extension must be allowed")
		}
		invite.AllowedExtensions = p.AllowedExtensions
	}
	if p.MaxSizeBytes != nil {
		if *p.MaxSizeBytes <= 0 {
			return nil, NewValidationError("maxSizeBytes", "maxSizeBytes must be positive")
		}
		invite.MaxSizeBytes = *p.MaxSizeBytes
	}
	if p.MaxUsesSet {
		if p.MaxUses != nil && *p.MaxUses <= 0 {
			return nil, NewValidationError("maxUses", "maxUses must be positive or null for unlimited")
		}
		invite.MaxUses = p.MaxUses
		// remaining always restarts from the new budget
		if p.MaxUses != nil {
			invite.RemainingUses = *p.MaxUses
		} else {
			invite.RemainingUses = 0
		}
	}
	if p.ExpiresAtSet {
		invite.ExpiresAt = p.ExpiresAt
	}
	if p.NotifyEmails != nil {
		invite.NotifyEmails = p.NotifyEmails
	}
	if p.Notes != nil {
		invite.Notes = *p.Notes
	}
	if p.UploadPrefix != nil || p.Label != nil {
		template := invite.UploadPrefix
		if p.UploadPrefix != nil {
			template = *p.UploadPrefix
		}
		invite.UploadPrefix = utils.ResolvePrefixTemplate(template, invite.Label, time.Now())
	}
	if err := db.Instance.Save(invite).Error; err != nil {
		return nil, err
	}
	return invite, nil
}

// InviteToggleRevocation flips ACTIVE <-> REVOKED. Calling it twice returns
// the invite to its original state. An EXPIRED invite toggles to REVOKED and
// back to ACTIVE; the next metadata read re-observes the expiry.
func InviteToggleRevocation(id string) (*Invite, error) {
	invite, err := InviteByID(id)
	if err != nil {
		return nil, err
	}
	if invite.Status == InviteStatusRevoked {
		invite.Status = InviteStatusActive
	} else {
		invite.Status = InviteStatusRevoked
	}
	if err := db.Instance.Model(invite).Update("status", invite.Status).Error; err != nil {
		return nil, err
	}
	return invite, nil
}

// InviteRegenerateToken issues a fresh token and replaces the stored hash;
// the previous token stops resolving immediately.
func InviteRegenerateToken(id string) (*Invite, string, error) {
	invite, err := InviteByID(id)
	if err != nil {
		return nil, "", err
	}
	token := utils.GenerateInviteToken()
	invite.TokenHash = utils.HashInviteToken(token)
	if err := db.Instance.Model(invite).Update("token_hash", invite.TokenHash).Error; err != nil {
		return nil, "", err
	}
	return invite, token, nil
}

// CommitUpload decrements the use budget and records the upload receipt in
// one transaction. The budget is re-read inside the transaction and the
// decrement is guarded by `remaining_uses > 0`, so two concurrent commits
// against a last remaining use end up as one success and one ErrExhausted,
// never two successes and never a negative counter.
func (i *Invite) CommitUpload(upload *InviteUpload) error {
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		var current Invite
		if err := tx.First(&current, "id = ?", i.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if current.MaxUses != nil {
			if current.RemainingUses <= 0 {
				return ErrExhausted
			}
			res := tx.Model(&Invite{}).
				Where("id = ? AND remaining_uses > 0", i.ID).
				UpdateColumns(map[string]interface{}{
					"remaining_uses": gorm.Expr("remaining_uses - 1"),
					"updated_at":     time.Now().Unix(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrExhausted
			}
			// echo the committed counter, not the pre-decrement read
			if err := tx.Model(&Invite{}).Select("remaining_uses").
				Where("id = ?", i.ID).Scan(&i.RemainingUses).Error; err != nil {
				return err
			}
		} else {
			i.RemainingUses = current.RemainingUses
		}
		upload.InviteID = i.ID
		return tx.Create(upload).Error
	})
	return err
}
