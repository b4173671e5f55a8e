package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rentwheel/service-rental/internal/common/apperror"
)

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// Message writes a 200 envelope carrying only a message.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// BadRequest writes a 400 invalid-argument envelope.
func BadRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, apperror.KindInvalidArgument, message)
}

// Unauthorized writes a 401 envelope.
func Unauthorized(c *gin.Context) {
	writeError(c, http.StatusUnauthorized, apperror.KindUnauthorized, "unauthorized")
}

// Error maps err to its status code. Store failures are attached to the
// gin context for the logger middleware and answered generically.
func Error(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindStoreFailure {
		_ = c.Error(err)
	}
	writeError(c, kind.HTTPStatus(), kind, apperror.PublicMessage(err))
}

func writeError(c *gin.Context, status int, kind apperror.Kind, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    string(kind),
			"message": message,
		},
	})
}
