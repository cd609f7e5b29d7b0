package domain

import (
	"time"
)

// Product kind constants. Each catalog listing is exactly one kind.
const (
	ProductKindBird      = "bird"
	ProductKindAccessory = "accessory"
	ProductKindFood      = "food"
)

// Product status constants.
const (
	ProductStatusActive   = "active"
	ProductStatusHidden   = "hidden"
	ProductStatusArchived = "archived"
)

// Product holds the fields common to every catalog listing. Kind-specific
// records (Bird, Accessory, Food) embed it by value rather than extending a
// base entity.
type Product struct {
	ID          string   `json:"id"`
	ShopID      string   `json:"shop_id"`
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Price       int64    `json:"price"`
	Currency    string   `json:"currency"`
	Quantity    int      `json:"quantity"`
	Status      string   `json:"status"`
	ImageURLs   []string `json:"image_urls,omitempty"`

	Summary ProductSummary `json:"summary"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductSummary is the review aggregate attached to a product: total review
// count and the mean star rating rounded half-up to two decimals.
type ProductSummary struct {
	TotalReviews int     `json:"total_reviews"`
	StarRating   float64 `json:"star_rating"`
}

// Bird is a live bird listing.
type Bird struct {
	Product
	Species   string `json:"species"`
	AgeMonths int    `json:"age_months"`
	Gender    string `json:"gender,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Accessory is a cage, perch, toy or other equipment listing.
type Accessory struct {
	Product
	Material string `json:"material,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

// Food is a bird food listing.
type Food struct {
	Product
	WeightGrams int        `json:"weight_grams"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ValidProductStatuses returns the set of valid product statuses.
func ValidProductStatuses() []string {
	return []string{ProductStatusActive, ProductStatusHidden, ProductStatusArchived}
}

// IsValidProductStatus checks whether the given status is valid.
func IsValidProductStatus(status string) bool {
	for _, s := range ValidProductStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidProductKinds returns the set of product kinds.
func ValidProductKinds() []string {
	return []string{ProductKindBird, ProductKindAccessory, ProductKindFood}
}

// IsValidProductKind checks whether the given kind is valid.
func IsValidProductKind(kind string) bool {
	for _, k := range ValidProductKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// InStock reports whether the product has at least the requested quantity
// available.
func (p *Product) InStock(qty int) bool {
	return p.Status == ProductStatusActive && p.Quantity >= qty
}
