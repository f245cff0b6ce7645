package server

import (
	"fmt"
	"net/http"
	"time"

	"jpx-history/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// dateQuery parses an optional YYYY-MM-DD query parameter (zero when absent).
func dateQuery(c *gin.Context, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(models.DateLayout, v, models.Tokyo)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, want YYYY-MM-DD", key, v)
	}
	return t, nil
}

// -----------------------------------------------------------------------------

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func serverError(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
