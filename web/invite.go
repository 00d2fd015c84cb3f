package web

import (
	"net/http"
	"strconv"
	"time"

	"server/audit"
	"server/config"
	"server/handlers"
	"server/models"
	"server/ratelimit"
	"server/storage"
	"server/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var limiter *ratelimit.Limiter

func Init(l *ratelimit.Limiter) {
	limiter = l
}

type InviteSignRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	Filename    string `json:"filename" binding:"required,max=200"`
}

type InviteCommitRequest struct {
	Key         string `json:"key" binding:"required,max=1024"`
	Size        int64  `json:"size" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Extension   string `json:"extension" binding:"required"`
	ETag        string `json:"etag"`
}

func inviteActor(invite *models.Invite) string {
	return "invite:" + invite.Label
}

// checkRateLimit applies the per-(endpoint, token, address) budget and
// writes the standard rate headers. Returns false after responding 429.
func checkRateLimit(c *gin.Context, endpoint, tokenHash string) bool {
	res := limiter.Check(endpoint, tokenHash, handlers.ClientIP(c))
	c.Header("X-RateLimit-Limit", strconv.Itoa(config.INVITE_RATE_LIMIT))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if res.Allowed {
		return true
	}
	retryAfter := int(time.Until(res.ResetAt).Seconds()) + 1
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	return false
}

func getInvite(c *gin.Context, endpoint string) *models.Invite {
	token := c.Param("token")
	if !checkRateLimit(c, endpoint, utils.HashInviteToken(token)) {
		return nil
	}
	invite, err := models.InviteByToken(token)
	if err != nil {
		handlers.AbortWithError(c, err)
		return nil
	}
	return invite
}

// InviteMetaView returns the redacted public view of an invite. Reading the
// metadata also observes expiry: an ACTIVE invite past its deadline is
// persisted as EXPIRED here.
func InviteMetaView(c *gin.Context) {
	invite := getInvite(c, "meta")
	if invite == nil {
		return
	}
	invite.ObserveExpiry(time.Now())

	cdnDisplayName := "Unknown CDN"
	if cdn, err := models.CDNByID(invite.CDNID); err == nil {
		cdnDisplayName = cdn.Name
	}
	c.JSON(http.StatusOK, gin.H{
		"label":             invite.Label,
		"cdnDisplayName":    cdnDisplayName,
		"allowedMimeTypes":  invite.AllowedMimeTypes,
		"allowedExtensions": invite.AllowedExtensions,
		"maxSizeBytes":      invite.MaxSizeBytes,
		"expiresAt":         invite.ExpiresAt,
		"status":            invite.Status,
		"remainingUses":     invite.RemainingUses,
		"maxUses":           invite.MaxUses,
	})
}

// InviteSignPost validates the declared upload against the invite's
// constraints, derives the object key and returns a storage-enforced POST
// policy pinned to that key, content type and size ceiling.
func InviteSignPost(c *gin.Context) {
	invite := getInvite(c, "sign")
	if invite == nil {
		return
	}
	postReq := InviteSignRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, handlers.Response{Error: err.Error()})
		return
	}
	if err := invite.CheckUsable(time.Now()); err != nil {
		handlers.AbortWithError(c, err)
		return
	}
	if verr := invite.CheckContentType(postReq.ContentType); verr != nil {
		handlers.AbortWithError(c, verr)
		return
	}
	if verr := invite.CheckExtension(utils.FileExtension(postReq.Filename)); verr != nil {
		handlers.AbortWithError(c, verr)
		return
	}
	cdn, err := models.CDNByID(invite.CDNID)
	if err != nil {
		handlers.AbortWithError(c, err)
		return
	}

	// The prefix was frozen at invite creation/update time
	suffix := utils.GenerateFileSuffix()
	key := utils.BuildObjectKey(invite.UploadPrefix, postReq.Filename, suffix)

	store := storage.NewS3Storage(&cdn.Bucket)
	policy, err := store.CreateUploadPolicy(key, postReq.ContentType, invite.MaxSizeBytes,
		time.Duration(config.UPLOAD_POLICY_TTL_SEC)*time.Second)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handlers.Response{Error: "cannot sign upload"})
		return
	}
	audit.Record(models.ActionUploadRequested, inviteActor(invite), map[string]interface{}{
		"inviteId": invite.ID, "cdnId": invite.CDNID, "label": invite.Label,
		"fileKey": key, "contentType": postReq.ContentType,
	}, handlers.ClientIP(c), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"url":    policy.URL,
		"fields": policy.Fields,
		"key":    policy.Key,
	})
}

// InviteCommit finalizes an upload the invitee's browser reported as done:
// re-validates everything (client-declared values from the sign step are not
// trusted here), then atomically consumes one use and records the receipt.
func InviteCommit(c *gin.Context) {
	invite := getInvite(c, "commit")
	if invite == nil {
		return
	}
	postReq := InviteCommitRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, handlers.Response{Error: err.Error()})
		return
	}
	if err := invite.CheckUsable(time.Now()); err != nil {
		handlers.AbortWithError(c, err)
		return
	}
	clientIP := handlers.ClientIP(c)
	userAgent := c.Request.UserAgent()
	failUpload := func(reason string) {
		audit.Record(models.ActionUploadFailed, inviteActor(invite), map[string]interface{}{
			"inviteId": invite.ID, "fileKey": postReq.Key, "error": reason,
		}, clientIP, userAgent)
	}
	if verr := invite.CheckContentType(postReq.ContentType); verr != nil {
		failUpload(verr.Error())
		handlers.AbortWithError(c, verr)
		return
	}
	if verr := invite.CheckExtension(postReq.Extension); verr != nil {
		failUpload(verr.Error())
		handlers.AbortWithError(c, verr)
		return
	}
	if verr := invite.CheckSize(postReq.Size); verr != nil {
		failUpload(verr.Error())
		handlers.AbortWithError(c, verr)
		return
	}
	cdn, err := models.CDNByID(invite.CDNID)
	if err != nil {
		handlers.AbortWithError(c, err)
		return
	}

	upload := models.InviteUpload{
		Key:         postReq.Key,
		Size:        postReq.Size,
		ContentType: postReq.ContentType,
		Extension:   postReq.Extension,
		ETag:        postReq.ETag,
		IP:          clientIP,
		UserAgent:   userAgent,
		Status:      models.UploadStatusSuccess,
	}
	if err := invite.CommitUpload(&upload); err != nil {
		failUpload(err.Error())
		handlers.AbortWithError(c, err)
		return
	}
	audit.Record(models.ActionUploadSucceeded, inviteActor(invite), map[string]interface{}{
		"inviteId": invite.ID, "cdnId": invite.CDNID, "label": invite.Label,
		"fileKey": upload.Key, "contentType": upload.ContentType,
		"fileSize": upload.Size, "extension": upload.Extension, "etag": upload.ETag,
	}, clientIP, userAgent)

	response := gin.H{
		"uploadId":      upload.ID,
		"remainingUses": invite.RemainingUses,
		"key":           upload.Key,
	}
	if publicURL := cdn.Bucket.PublicURL(upload.Key); publicURL != "" {
		response["publicUrl"] = publicURL
	} else {
		store := storage.NewS3Storage(&cdn.Bucket)
		signedURL, err := store.CreateDownloadURL(upload.Key, time.Duration(config.DOWNLOAD_URL_TTL_SEC)*time.Second)
		if err == nil {
			response["signedUrl"] = signedURL
		}
	}
	c.JSON(http.StatusOK, response)
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
}
