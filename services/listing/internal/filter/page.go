package filter

import (
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from int overflow.
	MaxPage      = 1_000_000
)

type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page and limit, clamping page to 1..MaxPage and limit to 1..MaxLimit.
// A page too large to parse is treated as MaxPage.
func ParsePage(params map[string]string) Page {
	p := Page{Page: 1, Limit: DefaultLimit}
	// Atoi saturates out-of-range input and reports ErrRange.
	if n, err := strconv.Atoi(strings.TrimSpace(params["page"])); (err == nil || errors.Is(err, strconv.ErrRange)) && n > 1 {
		p.Page = min(n, MaxPage)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(params["limit"])); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
