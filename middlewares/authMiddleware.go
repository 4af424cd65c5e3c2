package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/mmdatafocus/distribution_backend/workflow"
)

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetCurrentUser(c.Request.Context()); !ok {
			abortWithError(c, http.StatusUnauthorized, utils.ErrorUnauthorized.Error())
			return
		}
		c.Next()
	}
}

// RequireManager only lets ADMIN and OWNER through.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := utils.GetCurrentUser(c.Request.Context())
		if !ok {
			abortWithError(c, http.StatusUnauthorized, utils.ErrorUnauthorized.Error())
			return
		}
		if !workflow.CanOperateStatus(user.Role) {
			abortWithError(c, http.StatusForbidden, utils.ErrorForbidden.Error())
			return
		}
		c.Next()
	}
}
