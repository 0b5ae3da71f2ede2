package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// parseIntQuery reads an integer query parameter with a fallback default
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}

	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return defaultValue
	}
	return val
}
