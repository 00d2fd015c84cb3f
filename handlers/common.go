package handlers

import (
	"errors"
	"net/http"
	"server/models"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Error string `json:"error"`
}

var (
	// Predefined errors
	OKResponse       = Response{}
	DBError1Response = Response{"DB Error 1"}
	DBError2Response = Response{"DB Error 2"}
)

// AbortWithError translates the model error taxonomy into HTTP responses.
// Validation failures echo the violated field and allowed set so callers can
// self-correct.
func AbortWithError(c *gin.Context, err error) {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		body := gin.H{"error": validation.Message, "field": validation.Field}
		if len(validation.Allowed) > 0 {
			body["allowed"] = validation.Allowed
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{"not found"})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, Response{"access denied"})
	case errors.Is(err, models.ErrExhausted),
		errors.Is(err, models.ErrNotActive),
		errors.Is(err, models.ErrExpired):
		c.JSON(http.StatusBadRequest, Response{err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Response{"something went wrong"})
	}
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return
}

func userActor(user *models.User) string {
	return "user:" + strconv.FormatUint(user.ID, 10)
}

// ClientIP prefers proxy-provided headers, falling back to the socket
// address gin resolved.
func ClientIP(c *gin.Context) string {
	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return c.ClientIP()
}
