package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rail-portal/internal/service"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings translates service errors into responses. Anything unlisted is an
// internal failure and is answered with the handler's fallback message.
var errorMappings = []errorMapping{
	{service.ErrDuplicateUsername, http.StatusBadRequest, "Username already exists"},
	{service.ErrDuplicateEmail, http.StatusBadRequest, "Email already exists"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid Username or Password"},
}

func respondError(c *gin.Context, err error, fallback string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{"error": m.message})
			return
		}
	}

	entry := requestLog(c).WithError(err)
	if errors.Is(err, service.ErrUpstream) {
		entry.Warn(fallback)
	} else {
		entry.Error(fallback)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
