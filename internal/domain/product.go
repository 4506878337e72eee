package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Categories is the fixed vocabulary a product may belong to.
var Categories = []string{"men", "women", "kids", "accessories", "electronics", "home"}

// Sizes is the fixed vocabulary for product sizes (apparel letters,
// numeric sizes and child age ranges).
var Sizes = []string{
	"XS", "S", "M", "L", "XL", "XXL",
	"16", "18", "20", "22", "24", "26", "28", "30", "32", "34", "36", "38", "40", "42",
	"0-1 Y", "1-2 Y", "2-3 Y", "3-4 Y", "4-5 Y", "5-6 Y", "6-7 Y", "7-8 Y",
	"8-9 Y", "9-10 Y", "10-11 Y", "11-12 Y", "13-14 Y",
}

// ValidCategory reports whether c is a known product category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ValidSize reports whether s is a known product size.
func ValidSize(s string) bool {
	for _, known := range Sizes {
		if s == known {
			return true
		}
	}
	return false
}

// StringList is a []string stored as a JSONB column. The pgx stdlib driver
// has no native []string mapping through database/sql, so list-valued
// product fields round-trip through JSON.
type StringList []string

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}

	return json.Unmarshal(data, l)
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Product represents a catalog product. Stock and Sold are mutated only by
// the order placement workflow; everything else by admin action.
type Product struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	Price         float64    `json:"price" db:"price"`
	OriginalPrice *float64   `json:"original_price,omitempty" db:"original_price"`
	Category      string     `json:"category" db:"category"`
	Subcategory   string     `json:"subcategory" db:"subcategory"`
	Images        StringList `json:"images" db:"images"`
	Stock         int        `json:"stock" db:"stock"`
	Sizes         StringList `json:"sizes" db:"sizes"`
	Colors        StringList `json:"colors" db:"colors"`
	Brand         string     `json:"brand" db:"brand"`
	Rating        float64    `json:"rating" db:"rating"`
	NumReviews    int        `json:"num_reviews" db:"num_reviews"`
	IsFeatured    bool       `json:"is_featured" db:"is_featured"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	Sold          int        `json:"sold" db:"sold"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
