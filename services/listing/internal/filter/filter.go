// Package filter compiles flat query parameters into a listing predicate that can
// be rendered as SQL or evaluated against listings in memory.
package filter

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"avto-sawda/services/listing/internal/entity"

	"gorm.io/gorm"
)

// Order is the result ordering of every listing search: promoted first, newest first.
const Order = "is_premium DESC, created_at DESC"

type Kind int

const (
	KindText Kind = iota
	KindEqual
	KindNumber
	KindBool
	KindContains
	KindRange
	KindSearch
)

// Clause is one compiled constraint. Only the value fields relevant to Kind are set.
type Clause struct {
	Param  string
	Kind   Kind
	Column string
	Text   string
	Number float64
	Bool   bool
	Min    *float64
	Max    *float64

	field *field
}

type Criteria struct {
	Clauses []Clause
}

// Compile turns query parameters into Criteria. Blank, unknown or malformed values
// impose no constraint.
func Compile(params map[string]string) *Criteria {
	get := func(key string) string { return strings.TrimSpace(params[key]) }
	c := &Criteria{}

	search := get("search")
	if search != "" {
		c.Clauses = append(c.Clauses, Clause{Param: "search", Kind: KindSearch, Text: search})
	}

	for _, f := range textFacets {
		if search != "" && (f.param == "brand" || f.param == "model") {
			continue
		}
		if v := get(f.param); v != "" {
			c.add(Clause{Param: f.param, Kind: KindText, Text: v}, f.field)
		}
	}

	for _, f := range enumFacets {
		if v := get(f.param); v != "" {
			c.add(Clause{Param: f.param, Kind: KindEqual, Text: v}, f.field)
		}
	}

	for _, f := range numberFacets {
		if n, ok := parseNumber(get(f.param)); ok {
			c.add(Clause{Param: f.param, Kind: KindNumber, Number: n}, f.field)
		}
	}

	for _, f := range boolFacets {
		if b, ok := parseBool(get(f.param)); ok {
			c.add(Clause{Param: f.param, Kind: KindBool, Bool: b}, f.field)
		}
	}

	for _, f := range memberFacets {
		if b, ok := parseBool(get(f.param)); ok && b {
			c.add(Clause{Param: f.param, Kind: KindContains, Text: f.member}, f.field)
		}
	}

	for _, f := range listFacets {
		for _, member := range strings.Split(get(f.param), ",") {
			if member = strings.TrimSpace(member); member != "" {
				c.add(Clause{Param: f.param, Kind: KindContains, Text: member}, f.field)
			}
		}
	}

	for _, f := range rangeFacets {
		var lo, hi *float64
		if n, ok := parseNumber(get(f.minParam)); ok && f.minParam != "" {
			lo = &n
		}
		if n, ok := parseNumber(get(f.maxParam)); ok && f.maxParam != "" {
			hi = &n
		}
		if lo == nil && hi == nil {
			continue
		}
		param := f.minParam
		if param == "" {
			param = f.maxParam
		}
		c.add(Clause{Param: param, Kind: KindRange, Min: lo, Max: hi}, f.field)
	}

	return c
}

func (c *Criteria) add(cl Clause, f *field) {
	cl.Column = f.column
	cl.field = f
	c.Clauses = append(c.Clauses, cl)
}

// Has reports whether param produced a clause.
func (c *Criteria) Has(param string) bool {
	for _, cl := range c.Clauses {
		if cl.Param == param {
			return true
		}
	}
	return false
}

// Apply adds every clause to db as a WHERE condition.
func (c *Criteria) Apply(db *gorm.DB) *gorm.DB {
	for _, cl := range c.Clauses {
		switch cl.Kind {
		case KindSearch:
			pattern := likePattern(cl.Text)
			db = db.Where("(brand ILIKE ? OR model ILIKE ? OR (brand || ' ' || model) ILIKE ?)", pattern, pattern, pattern)
		case KindText:
			db = db.Where(cl.Column+" ILIKE ?", likePattern(cl.Text))
		case KindEqual:
			db = db.Where(cl.Column+" = ?", cl.Text)
		case KindNumber:
			db = db.Where(cl.Column+" = ?", cl.Number)
		case KindBool:
			db = db.Where(cl.Column+" = ?", cl.Bool)
		case KindContains:
			db = db.Where("? = ANY("+cl.Column+")", cl.Text)
		case KindRange:
			if cl.Min != nil {
				db = db.Where(cl.Column+" >= ?", *cl.Min)
			}
			if cl.Max != nil {
				db = db.Where(cl.Column+" <= ?", *cl.Max)
			}
		}
	}
	return db
}

// Matches evaluates the criteria against one listing with the same semantics as Apply.
// Missing optional numbers fail any numeric constraint, as NULL does in SQL.
func (c *Criteria) Matches(l *entity.Listing) bool {
	for _, cl := range c.Clauses {
		if !cl.matches(l) {
			return false
		}
	}
	return true
}

func (cl Clause) matches(l *entity.Listing) bool {
	switch cl.Kind {
	case KindSearch:
		return containsFold(l.Brand, cl.Text) ||
			containsFold(l.Model, cl.Text) ||
			containsFold(l.Brand+" "+l.Model, cl.Text)
	case KindText:
		return containsFold(cl.field.text(l), cl.Text)
	case KindEqual:
		return cl.field.text(l) == cl.Text
	case KindNumber:
		n, ok := cl.field.num(l)
		return ok && n == cl.Number
	case KindBool:
		return cl.field.flag(l) == cl.Bool
	case KindContains:
		for _, m := range cl.field.set(l) {
			if m == cl.Text {
				return true
			}
		}
		return false
	case KindRange:
		n, ok := cl.field.num(l)
		if !ok {
			return false
		}
		return (cl.Min == nil || n >= *cl.Min) && (cl.Max == nil || n <= *cl.Max)
	}
	return true
}

// SortListings orders listings the way Order does.
func SortListings(ls []*entity.Listing) {
	sort.SliceStable(ls, func(i, j int) bool {
		if ls[i].IsPremium != ls[j].IsPremium {
			return ls[i].IsPremium
		}
		return ls[i].CreatedAt.After(ls[j].CreatedAt)
	})
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
