package domain

import (
	"fmt"
	"strings"
)

// Category is the fixed business area a chat belongs to.
type Category string

const (
	CategorySupport Category = "support"
	CategoryFinance Category = "finance"
	CategorySales   Category = "sales"
	CategoryInfra   Category = "infra"
)

// Categories lists every category in sidebar order.
var Categories = []Category{
	CategorySupport,
	CategoryFinance,
	CategorySales,
	CategoryInfra,
}

// Valid reports whether c is part of the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory validates user input against the category set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
