package domain

import "time"

// Shop represents a seller's storefront. Each shop is owned by exactly one
// account with the shopowner role.
type Shop struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ShopStaff is a staff member account attached to a shop. Staff log in with
// their own credentials but act within the owning shop's scope.
type ShopStaff struct {
	ID        string     `json:"id"`
	ShopID    string     `json:"shop_id"`
	AccountID string     `json:"account_id"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the staff membership is still in effect.
func (s *ShopStaff) Active() bool {
	return s.RevokedAt == nil
}
