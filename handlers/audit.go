package handlers

import (
	"net/http"
	"server/db"
	"server/models"

	"github.com/gin-gonic/gin"
)

func AuditList(c *gin.Context, user *models.User) {
	page, limit := parsePagination(c)
	query := db.Instance.Model(&models.AuditLog{}).Order("created_at desc")
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if actor := c.Query("actor"); actor != "" {
		query = query.Where("actor = ?", actor)
	}
	var total int64
	if query.Count(&total).Error != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	entries := []models.AuditLog{}
	if query.Offset((page-1)*limit).Limit(limit).Find(&entries).Error != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
