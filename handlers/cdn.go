package handlers

import (
	"net/http"
	"time"

	"server/audit"
	"server/config"
	"server/db"
	"server/models"
	"server/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type CdnSaveRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	BucketID    uint64 `json:"bucketId" binding:"required"`
	Prefix      string `json:"prefix"`
}

type CdnFileRequest struct {
	Key         string `json:"key" binding:"required"`
	ContentType string `json:"contentType"`
}

func CdnSave(c *gin.Context, user *models.User) {
	postReq := CdnSaveRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	bucket := storage.Bucket{ID: postReq.BucketID}
	if db.Instance.First(&bucket).Error != nil {
		c.JSON(http.StatusNotFound, Response{"bucket not found"})
		return
	}
	if postReq.ID == "" {
		cdn := models.CDN{
			Name:        postReq.Name,
			Description: postReq.Description,
			BucketID:    postReq.BucketID,
			Prefix:      postReq.Prefix,
			CreatedByID: user.ID,
		}
		if err := db.Instance.Create(&cdn).Error; err != nil {
			c.JSON(http.StatusInternalServerError, DBError1Response)
			return
		}
		audit.Record(models.ActionCDNCreated, userActor(user), map[string]interface{}{
			"cdnId": cdn.ID, "name": cdn.Name,
		}, ClientIP(c), c.Request.UserAgent())
		c.JSON(http.StatusOK, cdn)
		return
	}
	cdn, err := models.CDNByID(postReq.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	cdn.Name = postReq.Name
	cdn.Description = postReq.Description
	cdn.BucketID = postReq.BucketID
	cdn.Prefix = postReq.Prefix
	if err := db.Instance.Save(cdn).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	audit.Record(models.ActionCDNUpdated, userActor(user), map[string]interface{}{
		"cdnId": cdn.ID, "name": cdn.Name,
	}, ClientIP(c), c.Request.UserAgent())
	c.JSON(http.StatusOK, cdn)
}

func CdnList(c *gin.Context, user *models.User) {
	cdns := []models.CDN{}
	if db.Instance.Preload("Bucket").Order("created_at desc").Find(&cdns).Error != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	for i := range cdns {
		cdns[i].Bucket.S3Key = ""
		cdns[i].Bucket.S3Secret = ""
	}
	c.JSON(http.StatusOK, cdns)
}

func CdnGet(c *gin.Context, user *models.User) {
	cdn, err := models.CDNByID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	cdn.Bucket.S3Key = ""
	cdn.Bucket.S3Secret = ""
	c.JSON(http.StatusOK, cdn)
}

func CdnDelete(c *gin.Context, user *models.User) {
	cdn, err := models.CDNByID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := db.Instance.Delete(&models.CDN{}, "id = ?", cdn.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	audit.Record(models.ActionCDNDeleted, userActor(user), map[string]interface{}{
		"cdnId": cdn.ID, "name": cdn.Name,
	}, ClientIP(c), c.Request.UserAgent())
	c.JSON(http.StatusOK, OKResponse)
}

// CdnFiles lists one page of objects under the CDN's prefix
func CdnFiles(c *gin.Context, user *models.User) {
	cdn, err := models.CDNByID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	prefix := cdn.Prefix
	if sub := c.Query("prefix"); sub != "" {
		prefix = sub
	}
	store := storage.NewS3Storage(&cdn.Bucket)
	objects, next, err := store.ListObjects(prefix, c.Query("token"), 1000)
	if err != nil {
		c.JSON(http.StatusBadGateway, Response{"cannot list bucket: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": objects, "nextToken": next})
}

func CdnFileSignGet(c *gin.Context, user *models.User) {
	cdn, err := models.CDNByID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, Response{"key is required"})
		return
	}
	store := storage.NewS3Storage(&cdn.Bucket)
	url, err := store.CreateDownloadURL(key, time.Duration(config.DOWNLOAD_URL_TTL_SEC)*time.Second)
	if err != nil {
		c.JSON(http.StatusBadGateway, Response{err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func CdnFileSignPut(c *gin.Context, user *models.User) {
	cdn, err := models.CDNByID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	postReq := CdnFileRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	contentType := postReq.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	store := storage.NewS3Storage(&cdn.Bucket)
	url, err := store.CreateUploadURL(postReq.Key, contentType, time.Duration(config.ADMIN_UPLOAD_TTL_SEC)*time.Second)
	if err != nil {
		c.JSON(http.StatusBadGateway, Response{err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "key": postReq.Key})
}

func CdnFileDelete(c *gin.Context, user *models.User) {
	cdn, err := models.CDNByID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	postReq := CdnFileRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	store := storage.NewS3Storage(&cdn.Bucket)
	if err := store.DeleteObject(postReq.Key); err != nil {
		c.JSON(http.StatusBadGateway, Response{err.Error()})
		return
	}
	audit.Record(models.ActionFileDeleted, userActor(user), map[string]interface{}{
		"cdnId": cdn.ID, "key": postReq.Key,
	}, ClientIP(c), c.Request.UserAgent())
	c.JSON(http.StatusOK, OKResponse)
}
