// Package audit appends events for every invite state transition and upload
// attempt. Writes are fire-and-forget: a failed audit write is logged and
// never fails or rolls back the operation that triggered it.
package audit

import (
	"encoding/json"
	"log"

	"server/db"
	"server/models"
)

func Record(action, actor string, details map[string]interface{}, ip, userAgent string) {
	encoded, err := json.Marshal(details)
	if err != nil {
		log.Printf("Cannot encode audit details for %s: %v", action, err)
		encoded = []byte("{}")
	}
	logEntry := models.AuditLog{
		Actor:     actor,
		Action:    action,
		Details:   string(encoded),
		IP:        ip,
		UserAgent: userAgent,
	}
	go func() {
		if err := db.Instance.Create(&logEntry).Error; err != nil {
			log.Printf("Cannot write audit log %s by %s: %v", action, actor, err)
		}
	}()
}
