// Package middleware provides HTTP middleware for the gin admin surface.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/newsloom/pkg/id"
	"github.com/kart-io/newsloom/pkg/response"
)

// RequestIDHeader 请求 ID 透传头。
const RequestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配 ID，客户端已携带时原样透传。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.New()
		}
		c.Set(response.RequestIDKey, rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}
