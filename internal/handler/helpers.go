package handler

import (
	"assetms/internal/apperr"
	"assetms/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail translates a service error into the envelope with the right status code
func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// actorID returns the verified employee id set by the auth middleware
func actorID(c *gin.Context) string {
	return c.GetString("employeeID")
}
