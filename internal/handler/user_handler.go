package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rentwheel/service-rental/internal/application"
	"github.com/rentwheel/service-rental/internal/common/auth"
	"github.com/rentwheel/service-rental/internal/common/middleware"
	"github.com/rentwheel/service-rental/internal/common/response"
)

// UserHandler handles account routes.
type UserHandler struct {
	service      *application.UserService
	secureCookie bool
}

// NewUserHandler creates a new UserHandler. secureCookie marks the token
// cookie Secure, which browsers only send over HTTPS.
func NewUserHandler(service *application.UserService, secureCookie bool) *UserHandler {
	return &UserHandler{service: service, secureCookie: secureCookie}
}

// RegisterRoutes registers account routes.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	users := r.Group("/api/v1/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/logout", h.Logout)

	me := users.Group("/me")
	me.Use(authMW)
	{
		me.GET("", h.Me)
		me.PATCH("/image", h.UploadImage)
		me.DELETE("/image", h.RemoveImage)
	}
}

// Register handles POST /api/v1/users/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req application.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	setTokenCookie(c, result.Token, h.service.TokenTTL(), h.secureCookie)
	response.Created(c, result)
}

// Login handles POST /api/v1/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req application.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	setTokenCookie(c, result.Token, h.service.TokenTTL(), h.secureCookie)
	response.Success(c, result)
}

// Logout handles POST /api/v1/users/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	response.Message(c, "Logged out")
}

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UploadImage handles PATCH /api/v1/users/me/image.
func (h *UserHandler) UploadImage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	image, err := readImage(c, "image")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UploadProfileImage(c.Request.Context(), userID, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RemoveImage handles DELETE /api/v1/users/me/image.
func (h *UserHandler) RemoveImage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.service.RemoveProfileImage(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
