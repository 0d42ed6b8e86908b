package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PaginatedResponse wraps one page of a list.
type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes an offset page of Total items.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// parsePagination reads offset and limit from the query. Out-of-range
// values fall back to the defaults.
func parsePagination(c *fiber.Ctx) Pagination {
	p := Pagination{
		Offset: c.QueryInt("offset", 0),
		Limit:  c.QueryInt("limit", defaultPageLimit),
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > maxPageLimit {
		p.Limit = defaultPageLimit
	}
	return p
}

// lastOffset is the offset of the final page. Pages are aligned on
// multiples of Limit counted from the current offset, so following next
// from here lands on it.
func (p Pagination) lastOffset() int {
	if p.Total <= p.Offset+p.Limit {
		return p.Offset
	}
	pages := (p.Total - p.Offset - 1) / p.Limit
	return p.Offset + pages*p.Limit
}

func (p Pagination) prevOffset() int {
	return max(p.Offset-p.Limit, 0)
}

func newPage[T any](items []T, p Pagination) PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PaginatedResponse[T]{Data: items, Pagination: p}
}

// SetLinkHeaders adds RFC 8288 first/prev/next/last links. Every other
// query parameter of the request is kept.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	link := func(offset int, rel string) string {
		args := fiber.AcquireArgs()
		defer fiber.ReleaseArgs(args)
		c.Request().URI().QueryArgs().CopyTo(args)
		args.Set("offset", fmt.Sprint(offset))
		args.Set("limit", fmt.Sprint(p.Limit))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, c.Path(), args.String(), rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(p.prevOffset(), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	links = append(links, link(p.lastOffset(), "last"))

	c.Set("Link", strings.Join(links, ", "))
}
