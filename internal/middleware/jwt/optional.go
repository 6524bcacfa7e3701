package jwt

import (
	"DoaLink/pkg/util/myjwt"
	"strings"

	"github.com/gin-gonic/gin"
)

// OptionalAuth 可选鉴权：带合法JWT则注入uuid，否则按匿名放行。
// widget 嵌入场景下没有登录态也要能用。
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := myjwt.ParseToken(tokenString)
		if err != nil {
			// token非法当匿名处理，不报错
			c.Next()
			return
		}

		c.Set("uuid", claims.Uuid)
		c.Set("username", claims.Username)
		c.Next()
	}
}
