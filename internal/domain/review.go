package domain

import (
	"fmt"
	"time"
)

// Rating is a 1-5 star review rating. The zero value is invalid.
type Rating int

const (
	RatingOneStar Rating = iota + 1
	RatingTwoStar
	RatingThreeStar
	RatingFourStar
	RatingFiveStar
)

// RatingFromStars converts a numeric star value into a Rating.
func RatingFromStars(stars int) (Rating, error) {
	if stars < 1 || stars > 5 {
		return 0, fmt.Errorf("rating must be between 1 and 5, got %d", stars)
	}
	return Rating(stars), nil
}

// Stars returns the numeric star value of the rating.
func (r Rating) Stars() int {
	return int(r)
}

// Valid reports whether the rating is within the 1-5 range.
func (r Rating) Valid() bool {
	return r >= RatingOneStar && r <= RatingFiveStar
}

// Review is one account's feedback on one order line. Reviews are immutable
// once created.
type Review struct {
	ID            string    `json:"id"`
	OrderDetailID string    `json:"order_detail_id"`
	ProductID     string    `json:"product_id"`
	AccountID     string    `json:"account_id"`
	Rating        Rating    `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	ImageURLs     []string  `json:"image_urls,omitempty"`
	ReviewDate    time.Time `json:"review_date"`
}
