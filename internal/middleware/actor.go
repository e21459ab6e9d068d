package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// ActorMiddleware resolves the acting guardian from the X-Actor-Id header set
// by the authenticating gateway. Requests without a valid actor are rejected
// before any handler runs.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader("X-Actor-Id")
		if actorID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "UNAUTHORIZED",
				"message": "Missing X-Actor-Id header",
			})
			c.Abort()
			return
		}

		if _, err := ulid.Parse(actorID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "UNAUTHORIZED",
				"message": "Invalid X-Actor-Id header",
			})
			c.Abort()
			return
		}

		c.Set("actor_id", actorID)
		c.Next()
	}
}
