package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// CacheControl sets the cache-control header for every response passing
// through it. A maxAge of 0 disables caching entirely; everything this
// server returns (one-time tokens, signed policies, session-scoped admin
// data) must not end up in a shared cache.
func CacheControl(maxAge int) gin.HandlerFunc {
	value := "no-cache"
	if maxAge > 0 {
		value = "private, max-age=" + strconv.Itoa(maxAge)
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
