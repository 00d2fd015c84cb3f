package utils

import (
	"log"

	"github.com/gin-gonic/gin"
)

type errorBodyWriter struct {
	gin.ResponseWriter
	gc *gin.Context
}

func (w errorBodyWriter) Write(b []byte) (int, error) {
	if status := w.gc.Writer.Status(); status >= 400 {
		log.Printf("%s %s -> %d: %s", w.gc.Request.Method, w.gc.Request.URL.Path, status, string(b))
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware logs the body of every error response. Debug mode
// only; it must run before gzip since it reads the body as written.
func ErrorLogMiddleware(c *gin.Context) {
	c.Writer = &errorBodyWriter{gc: c, ResponseWriter: c.Writer}
	c.Next()
}
