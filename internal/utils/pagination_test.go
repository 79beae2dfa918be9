package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=0&limit=500&order=sideways", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, "desc", params.Order)
}

func TestPageOf(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, PageOf(items, PaginationParams{Page: 1, Limit: 2}))
	assert.Equal(t, []int{5}, PageOf(items, PaginationParams{Page: 3, Limit: 2}))
	assert.Equal(t, []int{}, PageOf(items, PaginationParams{Page: 4, Limit: 2}))
}

func TestCreatePaginationResult(t *testing.T) {
	result := CreatePaginationResult([]int{1}, 41, PaginationParams{Page: 1, Limit: 20})
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, int64(41), result.Total)
}
