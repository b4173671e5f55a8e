package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rentwheel/service-rental/internal/application"
	"github.com/rentwheel/service-rental/internal/common/middleware"
	"github.com/rentwheel/service-rental/internal/common/response"
)

// maxImageBytes caps a single uploaded image.
const maxImageBytes = 5 << 20

// parseID reads the :id path parameter. On failure it writes a 400 and
// returns false.
func parseID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, fmt.Sprintf("invalid %s ID", entity))
		return uuid.Nil, false
	}
	return id, true
}

// readImage loads the multipart file in field. A missing field yields nil so
// the service can report the required image itself.
func readImage(c *gin.Context, field string) (*application.ImageFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid %s upload: %w", field, err)
	}
	if header.Size > maxImageBytes {
		return nil, fmt.Errorf("%s must be at most %d MB", field, maxImageBytes>>20)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("invalid %s upload: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("invalid %s upload: %w", field, err)
	}
	return &application.ImageFile{Name: header.Filename, Data: data}, nil
}

// setTokenCookie stores the access token for browser clients.
func setTokenCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}
