package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/utils"
)

// SessionResolver maps a session token to its user.
type SessionResolver func(ctx context.Context, token string) (appctx.CurrentUser, error)

func sessionToken(c *gin.Context) string {
	if token := c.Request.Header.Get("token"); token != "" {
		return token
	}
	auth := c.Request.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// SessionMiddleware puts the session user on the request context.
// Requests without a token pass through anonymously.
func SessionMiddleware(resolve SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		user, err := resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, utils.ErrorUnauthorized) {
				config.LogError(config.GetLogger(), "sessionMiddleware.go", "SessionMiddleware", "resolve session", nil, err)
			}
			abortWithError(c, http.StatusUnauthorized, utils.ErrorUnauthorized.Error())
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetCurrentUser(ctx, user)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
