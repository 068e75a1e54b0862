package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ResolveOrigin returns the network-origin identity of a request. When
// trustProxy is set, the first entry of X-Forwarded-For wins, matching a
// deployment behind a reverse proxy; otherwise the socket peer address is
// used. The origin is an access-gating identity, not necessarily a literal
// network address.
func ResolveOrigin(c *gin.Context, trustProxy bool) string {
	if trustProxy {
		if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
			if first, _, found := strings.Cut(fwd, ","); found {
				return strings.TrimSpace(first)
			}
			return strings.TrimSpace(fwd)
		}
	}
	return c.ClientIP()
}
