package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/inviteforge/inviteforge/internal/auth"
	"github.com/inviteforge/inviteforge/internal/models"
	"github.com/inviteforge/inviteforge/internal/services"
	appErrors "github.com/inviteforge/inviteforge/pkg/errors"
	"github.com/inviteforge/inviteforge/pkg/metrics"
	"github.com/inviteforge/inviteforge/pkg/response"
)

// AuthHandler manages registration, login and the authenticated profile view.
type AuthHandler struct {
	users             *services.UserService
	jwt               *iauth.JWTService
	allowRegistration bool
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService, allowRegistration bool) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, allowRegistration: allowRegistration}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=200"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"full_name":     user.FullName,
		"role":          user.Role,
		"is_active":     user.IsActive,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	if !h.allowRegistration {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			response.Error(c, appErrors.ErrEmailTaken)
			return
		}
		response.Error(c, appErrors.Wrap(err, "registration failed"))
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":   userPayload(user),
		"tokens": tokenResponse{AccessToken: token},
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		// Normalise auth errors to 401
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, appErrors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"user":   userPayload(user),
		"tokens": tokenResponse{AccessToken: token},
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), currentUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "profile lookup failed"))
		return
	}

	response.Success(c, http.StatusOK, userPayload(user))
}
