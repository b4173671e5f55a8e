package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/rentwheel/service-rental/internal/application"
	"github.com/rentwheel/service-rental/internal/common/auth"
	"github.com/rentwheel/service-rental/internal/common/middleware"
	"github.com/rentwheel/service-rental/internal/common/response"
)

// OwnerHandler handles the owner's fleet and booking management.
type OwnerHandler struct {
	users        *application.UserService
	cars         *application.CarService
	bookings     *application.BookingService
	secureCookie bool
}

// NewOwnerHandler creates a new OwnerHandler.
func NewOwnerHandler(users *application.UserService, cars *application.CarService, bookings *application.BookingService, secureCookie bool) *OwnerHandler {
	return &OwnerHandler{users: users, cars: cars, bookings: bookings, secureCookie: secureCookie}
}

// RegisterRoutes registers owner routes. Becoming an owner only needs a
// signed-in user; everything else needs the owner role.
func (h *OwnerHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	ownerRole := middleware.RequireRole(auth.RoleOwner)

	owner := r.Group("/api/v1/owner")
	owner.Use(authMW)
	{
		owner.POST("/role", h.BecomeOwner)
		owner.POST("/cars", ownerRole, h.AddCar)
		owner.GET("/cars", ownerRole, h.ListCars)
		owner.DELETE("/cars/:id", ownerRole, h.DelistCar)
		owner.POST("/cars/:id/toggle", ownerRole, h.ToggleAvailability)
		owner.GET("/bookings", ownerRole, h.Bookings)
		owner.GET("/dashboard", ownerRole, h.Dashboard)
	}
}

// BecomeOwner handles POST /api/v1/owner/role.
func (h *OwnerHandler) BecomeOwner(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.users.BecomeOwner(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	setTokenCookie(c, result.Token, h.users.TokenTTL(), h.secureCookie)
	response.Success(c, result)
}

// AddCar handles POST /api/v1/owner/cars. The form carries the image file
// and a car_data JSON field.
func (h *OwnerHandler) AddCar(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req application.AddCarRequest
	if err := json.Unmarshal([]byte(c.PostForm("car_data")), &req); err != nil {
		response.BadRequest(c, "car_data must be a JSON object")
		return
	}

	image, err := readImage(c, "image")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.cars.AddCar(c.Request.Context(), ownerID, req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListCars handles GET /api/v1/owner/cars.
func (h *OwnerHandler) ListCars(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.cars.GetOwnerCars(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DelistCar handles DELETE /api/v1/owner/cars/:id.
func (h *OwnerHandler) DelistCar(c *gin.Context) {
	carID, ok := parseID(c, "car")
	if !ok {
		return
	}
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	if err := h.cars.DelistCar(c.Request.Context(), ownerID, carID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Car removed")
}

// ToggleAvailability handles POST /api/v1/owner/cars/:id/toggle.
func (h *OwnerHandler) ToggleAvailability(c *gin.Context) {
	carID, ok := parseID(c, "car")
	if !ok {
		return
	}
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.cars.ToggleAvailability(c.Request.Context(), ownerID, carID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Bookings handles GET /api/v1/owner/bookings.
func (h *OwnerHandler) Bookings(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.bookings.GetOwnerBookings(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Dashboard handles GET /api/v1/owner/dashboard.
func (h *OwnerHandler) Dashboard(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.bookings.GetOwnerDashboard(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
