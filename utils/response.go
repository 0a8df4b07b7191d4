package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse sends the success envelope {statusCode, data, message}
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"statusCode": status,
		"data":       data,
		"message":    message,
	})
}

// JSONError sends the error envelope {statusCode, message, error}; error is the status text
func JSONError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"statusCode": status,
		"message":    message,
		"error":      http.StatusText(status),
	})
}
