package domain

import "time"

// User is the upstream account record. The gateway never stores passwords;
// registration and login are proxied to the backend API.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Address  string `json:"address,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Review is a user comment on a product, optionally carrying a star rating.
type Review struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	ProductID int64      `json:"productId"`
	Content   string     `json:"content"`
	Rating    *int       `json:"rating,omitempty"`
	AddedAt   *time.Time `json:"addedAt,omitempty"`
	User      *User      `json:"user,omitempty"`
}

// RatingSummary is the authoritative aggregate the upstream API maintains
// for a product. It is re-fetched after every rating submit.
type RatingSummary struct {
	ProductID     int64   `json:"productId"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}
