package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /healthz
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
