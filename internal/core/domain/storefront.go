package domain

import "time"

// User is the authenticated shopper profile
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobileNumber,omitempty"`
	DOB          string    `json:"dob,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Product is a catalogue entry
type Product struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating,omitempty"`
	Stock       int      `json:"stock,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// CartItem is one line of the cart. Product may be nil when the backend
// only returns the id.
type CartItem struct {
	ID       string   `json:"_id"`
	Product  *Product `json:"product,omitempty"`
	Quantity int      `json:"quantity"`
}

// Cart is the cart payload returned by every cart endpoint
type Cart struct {
	Products []CartItem `json:"products"`
}

// ReviewAuthor is the embedded user of a review
type ReviewAuthor struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// Review is a product review
type Review struct {
	ID        string        `json:"_id"`
	Product   string        `json:"product"`
	User      *ReviewAuthor `json:"user,omitempty"`
	Rating    int           `json:"rating"`
	Text      string        `json:"review"`
	Assets    []string      `json:"assets,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AuthPayload is the data returned by login and register
type AuthPayload struct {
	AccessToken Credential `json:"accessToken"`
	User        *User      `json:"user"`
}

// RefreshPayload is the data returned by the refresh endpoint
type RefreshPayload struct {
	AccessToken Credential `json:"accessToken"`
}
