package pagination

import (
	"fmt"
	"math"
	"net/url"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PaginationParams struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Filters  map[string]string `json:"filters"`
}

type PaginationMeta struct {
	CurrentPage int     `json:"current_page"`
	PageSize    int     `json:"page_size"`
	TotalPages  int     `json:"total_pages"`
	TotalItems  int64   `json:"total_items"`
	NextPage    *string `json:"next_page"`
	PrevPage    *string `json:"prev_page"`
}

type PaginatedResponse struct {
	Items      interface{}    `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// ParsePaginationParams reads page and page_size; every other query argument becomes a filter.
func ParsePaginationParams(c *fiber.Ctx) PaginationParams {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", DefaultPageSize)

	filters := make(map[string]string)
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if k != "page" && k != "page_size" {
			filters[k] = string(value)
		}
	})

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  filters,
	}
}

func ValidatePaginationParams(params PaginationParams) error {
	if params.Page < 1 {
		return fmt.Errorf("page must be greater than 0")
	}
	if params.PageSize < 1 || params.PageSize > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d", MaxPageSize)
	}
	return nil
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func buildPaginationURL(c *fiber.Ctx, page int, params PaginationParams) string {
	query := url.Values{}
	if params.PageSize != DefaultPageSize {
		query.Set("page_size", fmt.Sprint(params.PageSize))
	}
	for key, value := range params.Filters {
		if value != "" {
			query.Set(key, value)
		}
	}
	query.Set("page", fmt.Sprint(page))
	return fmt.Sprintf("%s://%s%s?%s", c.Protocol(), c.Hostname(), c.Path(), query.Encode())
}

func NewPaginatedResponse(c *fiber.Ctx, items interface{}, totalItems int64, params PaginationParams) PaginatedResponse {
	totalPages := int(math.Ceil(float64(totalItems) / float64(params.PageSize)))

	var nextPageURL, prevPageURL *string
	if params.Page < totalPages {
		next := buildPaginationURL(c, params.Page+1, params)
		nextPageURL = &next
	}
	if params.Page > 1 {
		prev := buildPaginationURL(c, params.Page-1, params)
		prevPageURL = &prev
	}

	return PaginatedResponse{
		Items: items,
		Pagination: PaginationMeta{
			CurrentPage: params.Page,
			PageSize:    params.PageSize,
			TotalPages:  totalPages,
			TotalItems:  totalItems,
			NextPage:    nextPageURL,
			PrevPage:    prevPageURL,
		},
	}
}
