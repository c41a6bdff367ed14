package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/inviteforge/inviteforge/internal/middleware"
	"github.com/inviteforge/inviteforge/internal/models"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) string {
	id, _ := c.Get(middleware.CtxUserIDKey)
	s, _ := id.(string)
	return s
}

// isAdmin reports whether the authenticated user carries the admin role.
func isAdmin(c *gin.Context) bool {
	role, _ := c.Get(middleware.CtxRoleKey)
	return role == models.RoleAdmin
}
