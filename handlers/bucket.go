package handlers

import (
	"net/http"
	"server/db"
	"server/models"
	"server/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func BucketSave(c *gin.Context, user *models.User) {
	bucket := storage.Bucket{}
	err := c.ShouldBindWith(&bucket, binding.JSON)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if bucket.Name == "" {
		c.JSON(http.StatusBadRequest, Response{"Empty bucket name"})
		return
	}
	if bucket.S3Key == "" || bucket.S3Secret == "" {
		c.JSON(http.StatusBadRequest, Response{"'S3 Key' and 'S3 Secret' must be provided"})
		return
	}
	if bucket.Region == "" {
		bucket.Region = "us-east-1"
	}
	if bucket.ID == 0 {
		err = db.Instance.Create(&bucket).Error
	} else {
		err = db.Instance.Save(&bucket).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "id": bucket.ID})
}

func BucketList(c *gin.Context, user *models.User) {
	buckets := []storage.Bucket{}
	result := db.Instance.Find(&buckets)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	// Never hand credentials back out
	for i := range buckets {
		buckets[i].S3Key = ""
		buckets[i].S3Secret = ""
	}
	c.JSON(http.StatusOK, buckets)
}
