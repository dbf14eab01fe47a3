package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/pkg/response"
	"github.com/kart-io/newsloom/pkg/utils/errors"
)

// Recovery 捕获 handler panic，返回统一错误响应。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"panic", r,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				resp := response.Err(errors.ErrInternal)
				if rid := c.GetString(response.RequestIDKey); rid != "" {
					resp.RequestID = rid
				}
				c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
			}
		}()
		c.Next()
	}
}
