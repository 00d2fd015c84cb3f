package auth

import (
	"net/http"

	"server/models"

	"github.com/gin-gonic/gin"
)

// HandlerFunc receives the session user once the permission check passed.
type HandlerFunc func(c *gin.Context, user *models.User)

// Router registers admin routes behind session resolution and permission
// checks. Only the verbs the console surface uses are exposed.
type Router struct {
	Base *gin.Engine
}

func (r *Router) exec(c *gin.Context, handler HandlerFunc, required []models.Permission) {
	user := LoadSession(c).User()
	if user.ID == 0 || !user.HasPermissions(required) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	handler(c, &user)
}

func (r *Router) GET(path string, handler HandlerFunc, required ...models.Permission) {
	r.Base.GET(path, func(c *gin.Context) {
		r.exec(c, handler, required)
	})
}

func (r *Router) POST(path string, handler HandlerFunc, required ...models.Permission) {
	r.Base.POST(path, func(c *gin.Context) {
		r.exec(c, handler, required)
	})
}

func (r *Router) DELETE(path string, handler HandlerFunc, required ...models.Permission) {
	r.Base.DELETE(path, func(c *gin.Context) {
		r.exec(c, handler, required)
	})
}
