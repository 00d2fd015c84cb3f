package models

import (
	"server/db"
	"server/storage"
)

func Init() {
	db.Instance.AutoMigrate(&User{})
	db.Instance.AutoMigrate(&Grant{})
	db.Instance.AutoMigrate(&storage.Bucket{})
	db.Instance.AutoMigrate(&CDN{})
	db.Instance.AutoMigrate(&Invite{})
	db.Instance.AutoMigrate(&InviteUpload{})
	db.Instance.AutoMigrate(&AuditLog{})
}
