package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       []string        `json:"image"`
	Category    Category        `json:"category"`
	Vendor      string          `json:"vendor,omitempty"`
}

// Thumbnail returns the first image URL or "" when the product has none.
func (p Product) Thumbnail() string {
	if len(p.Image) == 0 {
		return ""
	}
	return p.Image[0]
}

// ProductFields is the writable part of a product, used by create and update.
type ProductFields struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category"`
	Image       []string        `json:"image"`
	Vendor      string          `json:"vendor,omitempty"`
}

func (f ProductFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if f.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

// Category is identified by ID; the zero value means "all products".
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c Category) IsAll() bool {
	return c.ID == "" && c.Name == ""
}

// Slug is the category name escaped for use as a single URL path segment.
func (c Category) Slug() string {
	if c.IsAll() {
		return AllSlug
	}
	return url.PathEscape(c.Name)
}

// AllSlug is the path segment of the unfiltered catalog.
const AllSlug = "all"

// NameFromSlug reverses Category.Slug. The "all" segment yields "".
func NameFromSlug(slug string) (string, error) {
	if slug == AllSlug {
		return "", nil
	}
	name, err := url.PathUnescape(slug)
	if err != nil {
		return "", fmt.Errorf("invalid category slug %q: %w", slug, err)
	}
	return name, nil
}
