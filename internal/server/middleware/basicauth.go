// file: internal/server/middleware/basicauth.go
// version: 1.1.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// BasicAuthConfig holds the single operator credential. PasswordHash is a
// bcrypt hash and takes precedence over Password when set.
type BasicAuthConfig struct {
	Enabled      bool
	Username     string
	Password     string
	PasswordHash string
}

// HashPassword returns the bcrypt hash to store as PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (cfg BasicAuthConfig) passwordMatches(pass string) bool {
	if cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(pass)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
}

const basicAuthRealm = `Basic realm="Lending Library"`

// BasicAuth returns a Gin middleware that enforces HTTP Basic Authentication
// when cfg.Enabled is true. Health and metrics endpoints are exempt.
func BasicAuth(cfg BasicAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		// Exempt health and metrics endpoints
		switch c.Request.URL.Path {
		case "/api/health", "/metrics":
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", basicAuthRealm)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) == 1
		passMatch := cfg.passwordMatches(pass)

		if !userMatch || !passMatch {
			c.Header("WWW-Authenticate", basicAuthRealm)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
