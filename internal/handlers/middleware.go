package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	bearerScheme = "Bearer"

	// ctxUserID is the gin context key the authenticated user id is stored
	// under for downstream handlers.
	ctxUserID = "userId"
)

// requireAuth guards the protected route groups: requests need a Bearer token
// signed by this controller. The parsed user id lands in the gin context.
func (h *Handler) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		h.abortUnauthorized(c, "missing Authorization header")
		return
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != bearerScheme || token == "" {
		h.abortUnauthorized(c, "invalid Authorization header format")
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_token_rejected", "err", err)
		}
		h.abortUnauthorized(c, "invalid or expired token")
		return
	}

	c.Set(ctxUserID, userID)
	c.Next()
}

func (h *Handler) abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
