package handlers

import (
	"encoding/json"
	"net/http"

	"server/audit"
	"server/config"
	"server/db"
	"server/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func inviteURL(token string) string {
	return config.APP_BASE_URL + "/invite/" + token
}

func InviteCreate(c *gin.Context, user *models.User) {
	params := models.InviteCreateParams{}
	if err := c.ShouldBindWith(&params, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	invite, token, err := models.InviteCreate(&params, user)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	audit.Record(models.ActionInviteCreated, userActor(user), map[string]interface{}{
		"inviteId": invite.ID, "cdnId": invite.CDNID, "label": invite.Label,
	}, ClientIP(c), c.Request.UserAgent())
	// The raw token is returned exactly once, here
	c.JSON(http.StatusOK, gin.H{
		"invite":    invite,
		"token":     token,
		"inviteUrl": inviteURL(token),
	})
}

func InviteGet(c *gin.Context, user *models.User) {
	invite, err := models.InviteByID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invite)
}

func InviteList(c *gin.Context, user *models.User) {
	page, limit := parsePagination(c)
	query := db.Instance.Model(&models.Invite{}).Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if cdnID := c.Query("cdnId"); cdnID != "" {
		query = query.Where("cdn_id = ?", cdnID)
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("label LIKE ? OR notes LIKE ?", like, like)
	}
	var total int64
	if query.Count(&total).Error != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	invites := []models.Invite{}
	if query.Offset((page-1)*limit).Limit(limit).Find(&invites).Error != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"invites": invites,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func InviteUpdate(c *gin.Context, user *models.User) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	params := models.InviteUpdateParams{}
	if err := json.Unmarshal(body, &params); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	// A present-but-null field and an absent field mean different things for
	// maxUses (unlimited) and expiresAt (never)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	_, params.MaxUsesSet = raw["maxUses"]
	_, params.ExpiresAtSet = raw["expiresAt"]

	invite, err := models.InviteUpdate(c.Param("id"), &params)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	audit.Record(models.ActionInviteUpdated, userActor(user), map[string]interface{}{
		"inviteId": invite.ID, "cdnId": invite.CDNID, "label": invite.Label,
	}, ClientIP(c), c.Request.UserAgent())
	c.JSON(http.StatusOK, invite)
}

// InviteToggleRevocation flips ACTIVE <-> REVOKED
func InviteToggleRevocation(c *gin.Context, user *models.User) {
	invite, err := models.InviteToggleRevocation(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	action := models.ActionInviteRevoked
	if invite.Status == models.InviteStatusActive {
		action = models.ActionInviteRestored
	}
	audit.Record(action, userActor(user), map[string]interface{}{
		"inviteId": invite.ID, "cdnId": invite.CDNID, "label": invite.Label, "status": invite.Status,
	}, ClientIP(c), c.Request.UserAgent())
	c.JSON(http.StatusOK, gin.H{"id": invite.ID, "status": invite.Status})
}

// InviteRegenerateToken re-issues the invite token; the previous token stops
// working immediately since only the new hash remains stored.
func InviteRegenerateToken(c *gin.Context, user *models.User) {
	invite, token, err := models.InviteRegenerateToken(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	audit.Record(models.ActionInviteUpdated, userActor(user), map[string]interface{}{
		"inviteId": invite.ID, "label": invite.Label, "tokenRegenerated": true,
	}, ClientIP(c), c.Request.UserAgent())
	c.JSON(http.StatusOK, gin.H{"token": token, "inviteUrl": inviteURL(token)})
}

func InviteUploads(c *gin.Context, user *models.User) {
	invite, err := models.InviteByID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	page, limit := parsePagination(c)
	var total int64
	query := db.Instance.Model(&models.InviteUpload{}).Where("invite_id = ?", invite.ID)
	if query.Count(&total).Error != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	uploads := []models.InviteUpload{}
	if query.Order("uploaded_at desc").Offset((page-1)*limit).Limit(limit).Find(&uploads).Error != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"uploads": uploads,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
