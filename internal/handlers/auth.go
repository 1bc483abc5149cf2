package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// authCredentials is the shared payload of sign-up and sign-in.
type authCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// normalize trims the username; password whitespace is significant and the
// service layer owns its rules.
func (a *authCredentials) normalize() bool {
	a.Username = strings.TrimSpace(a.Username)
	return a.Username != ""
}

// bindJSONOrBadRequest binds the request body into dst, writing a 400 JSON on
// failure. Returns false if the request was already handled (aborted).
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) signUp(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	if !input.normalize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must not be blank"})
		return
	}

	id, err := h.services.SignUp(input.Username, input.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_up_failed", "username", input.Username, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *Handler) signIn(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	if !input.normalize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must not be blank"})
		return
	}

	token, err := h.services.GenerateToken(input.Username, input.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "username", input.Username, "err", err)
		}
		// one body for every credential failure, nothing to enumerate
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
