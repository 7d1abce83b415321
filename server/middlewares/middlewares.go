package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ErrorTokenAuthFail = 401

// AdminToken checks the "token" query parameter or header against token. An
// empty token disables the check, for local runs.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided := c.Query("token")
		if provided == "" {
			provided = c.GetHeader("token")
		}

		if provided == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": ErrorTokenAuthFail,
				"msg":  "empty admin token",
			})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": ErrorTokenAuthFail,
				"msg":  "invalid admin token",
			})
			c.Abort()
			return
		}

		// The token must not reach handlers or logs.
		c.Request.Header.Del("token")
		c.Next()
	}
}
