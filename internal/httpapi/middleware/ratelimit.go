package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/rankscout/rankscout/internal/common"
)

// RateLimit enforces a fixed per-minute window per user, counted in redis.
// A nil client or a redis error fails open.
func RateLimit(rds *redis.Client, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rds == nil || perMinute <= 0 {
			c.Next()
			return
		}
		v, ok := c.Get(UserIDKey)
		uid, okk := v.(uint64)
		if !ok || !okk {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:turns:%d:%d", uid, time.Now().Unix()/60)
		n, err := rds.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if n == 1 {
			rds.Expire(ctx, key, time.Minute)
		}
		if n > int64(perMinute) {
			common.Fail(c, http.StatusTooManyRequests, 42901, "too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
