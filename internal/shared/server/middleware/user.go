package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-generator/internal/shared/server/respond"
	"resume-generator/internal/shared/util"
)

const (
	userIDKey        = "userId"
	generationKeyKey = "generationKey"
)

// UserParam validates the :userId path parameter and stores it in context.
// Identity is asserted by the caller; this layer only rejects malformed IDs.
func UserParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := util.ValidateUserID(c.Param("userId"))
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid user id", nil)
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserIDFromContext returns the user ID stored by UserParam.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetGenerationKey records the idempotency key of the request for logging.
func SetGenerationKey(c *gin.Context, key string) {
	c.Set(generationKeyKey, key)
}
