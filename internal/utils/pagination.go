package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination is the page window of a list endpoint.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads the page and limit query params. The limit is
// clamped to maxPageSize; order and print histories grow without bound
// and are never served in one response.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := atoiOr(c.Query("page"), 1)
	if page <= 0 {
		page = 1
	}

	limit := atoiOr(c.Query("limit"), defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func atoiOr(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
