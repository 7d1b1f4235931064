// Package catalog defines the gallery's image items and the reference collection.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Category is an image category tag.
type Category string

const (
	CategoryAll          Category = "all" // wildcard, never stored on an Item
	CategoryLandscape    Category = "landscape"
	CategoryPortrait     Category = "portrait"
	CategoryNature       Category = "nature"
	CategoryArchitecture Category = "architecture"
	CategoryAbstract     Category = "abstract"
)

// ErrUnknownCategory is returned for tags outside the closed set.
var ErrUnknownCategory = errors.New("unknown category")

// Item is a displayable image. URL is its identity.
type Item struct {
	URL      string
	Category Category
	Title    string
}

// Categories returns the filter tabs in display order, wildcard first.
func Categories() []Category {
	return []Category{
		CategoryAll,
		CategoryLandscape,
		CategoryPortrait,
		CategoryNature,
		CategoryArchitecture,
		CategoryAbstract,
	}
}

// Label returns the tab label ("Landscape").
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Valid reports whether c may be stored on an Item.
func (c Category) Valid() bool {
	switch c {
	case CategoryLandscape, CategoryPortrait, CategoryNature, CategoryArchitecture, CategoryAbstract:
		return true
	}
	return false
}

// ParseCategory parses a tag case-insensitively. "all" is accepted.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == CategoryAll || c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Validate checks that every item has a unique, non-empty URL and a stored category.
func Validate(items []Item) error {
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.URL == "" {
			return fmt.Errorf("item %d: empty url", i)
		}
		if _, dup := seen[it.URL]; dup {
			return fmt.Errorf("item %d: duplicate url %s", i, it.URL)
		}
		seen[it.URL] = struct{}{}
		if !it.Category.Valid() {
			return fmt.Errorf("item %d: %w: %q", i, ErrUnknownCategory, it.Category)
		}
	}
	return nil
}
