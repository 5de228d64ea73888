package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CronSecret 校验外部调度器携带的 Bearer 密钥
// secret 为空时不校验
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}
