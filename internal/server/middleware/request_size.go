// file: internal/server/middleware/request_size.go
// version: 2.0.0
// guid: f2129ae7-cf11-4888-bd4f-ab4b578f8f18

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimits caps request bodies. Routes listed in Uploads take whole
// catalog files and get the larger limit; everything else carries JSON.
type BodyLimits struct {
	JSONBytes   int64
	UploadBytes int64
	Uploads     []string
}

func (l BodyLimits) normalized() BodyLimits {
	if l.JSONBytes < 1 {
		l.JSONBytes = 1 << 20
	}
	l.UploadBytes = max(l.UploadBytes, l.JSONBytes)
	return l
}

// limitFor returns the cap for a registered route path
func (l BodyLimits) limitFor(route string) int64 {
	for _, u := range l.Uploads {
		if u == route {
			return l.UploadBytes
		}
	}
	return l.JSONBytes
}

// MaxRequestBodySize rejects oversized POST, PUT and PATCH bodies with 413
// and caps the rest with http.MaxBytesReader.
func MaxRequestBodySize(limits BodyLimits) gin.HandlerFunc {
	limits = limits.normalized()

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		limit := limits.limitFor(c.FullPath())
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":  "request body too large",
				"code":   "PAYLOAD_TOO_LARGE",
				"status": http.StatusRequestEntityTooLarge,
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
