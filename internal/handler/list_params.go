package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

type listParams struct {
	isActive  *bool
	page      int
	pageSize  int
	sortBy    string
	sortOrder string
}

func parseListParams(c *gin.Context) listParams {
	params := listParams{page: 1, pageSize: 20}
	if isActive := c.Query("isActive"); isActive != "" {
		if val, err := strconv.ParseBool(isActive); err == nil {
			params.isActive = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		params.page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		params.pageSize = size
	}
	params.sortBy = c.Query("sort")
	params.sortOrder = c.Query("order")
	return params
}
