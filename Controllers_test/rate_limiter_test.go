package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/mess-management/middlewares"
)

// Limiter harus dipasang sebelum route didaftarkan, kalau tidak gin
// tidak memasukkannya ke handler chain.
func TestRateLimiterBlocksExcessRequests(t *testing.T) {
	limiter := middlewares.NewRateLimiter(2, 60)

	router := gin.New()
	router.Use(limiter.RateLimit())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	for i := 0; i < 2; i++ {
		w := doJSON(router, "GET", "/ping", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(router, "GET", "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
