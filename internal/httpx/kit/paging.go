package kit

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// Paging defaults for page-numbered listings.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageParams are 1-based page-number paging parameters.
type PageParams struct {
	Page    int
	PerPage int
}

// Offset is the number of rows skipped before this page.
func (p PageParams) Offset() int { return (p.Page - 1) * p.PerPage }

// ParsePage reads ?page and ?perPage, clamping page to >= 1 and perPage to
// [1, MaxPerPage]. Malformed values fall back to the defaults.
func ParsePage(c *fiber.Ctx) PageParams {
	return PageParams{
		Page:    max(c.QueryInt("page", 1), 1),
		PerPage: lo.Clamp(c.QueryInt("perPage", DefaultPerPage), 1, MaxPerPage),
	}
}
