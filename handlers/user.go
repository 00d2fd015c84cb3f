package handlers

import (
	"net/http"
	"server/auth"
	"server/db"
	"server/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type UserLoginRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type UserSaveRequest struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

func UserLogin(c *gin.Context) {
	postReq := UserLoginRequest{}
	err := c.ShouldBindWith(&postReq, binding.Form)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	user, success := models.UserLogin(postReq.Email, postReq.Password)
	if !success {
		c.JSON(http.StatusUnauthorized, Response{"invalid credentials"})
		return
	}
	session := auth.LoadSession(c)
	session.LoginUser(&user)
	c.JSON(http.StatusOK, gin.H{"error": "", "name": user.Name, "permissions": user.GetPermissions()})
}

func UserLogout(c *gin.Context, user *models.User) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, OKResponse)
}

func UserGetStatus(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, gin.H{
		"error":       "",
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"permissions": user.GetPermissions(),
	})
}

func UserSave(c *gin.Context, user *models.User) {
	postReq := UserSaveRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if postReq.ID == 0 {
		created, err := models.UserCreate(postReq.Name, postReq.Email, postReq.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, Response{err.Error()})
			return
		}
		created.CreatedByID = &user.ID
		db.Instance.Save(&created)
		if postReq.IsAdmin {
			db.Instance.Create(&models.Grant{
				GrantorID:  user.ID,
				UserID:     created.ID,
				Permission: models.PermissionAdmin,
			})
		}
		c.JSON(http.StatusOK, gin.H{"error": "", "id": created.ID})
		return
	}
	existing := models.User{ID: postReq.ID}
	if db.Instance.First(&existing).Error != nil {
		c.JSON(http.StatusNotFound, Response{"not found"})
		return
	}
	existing.Name = postReq.Name
	existing.Email = postReq.Email
	if postReq.Password != "" {
		existing.SetPassword(postReq.Password)
	}
	if err := db.Instance.Save(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "id": existing.ID})
}

func UserList(c *gin.Context, user *models.User) {
	users := []models.User{}
	if db.Instance.Preload("Grants").Find(&users).Error != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, users)
}
