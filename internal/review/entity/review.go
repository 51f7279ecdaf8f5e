package entity

import "time"

// Review is a row of the reviews table. FilmID and UserID are checked
// against their owning services only when the review is written.
type Review struct {
	ID         int64     `db:"id" json:"id"`
	FilmID     int64     `db:"film_id" json:"film_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Text       string    `db:"text" json:"text"`
	Rating     int       `db:"rating" json:"rating"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
}

// NewReview is the client-supplied part of a review.
type NewReview struct {
	FilmID int64  `json:"film_id" validate:"gt=0"`
	UserID int64  `json:"user_id" validate:"gt=0"`
	Text   string `json:"text" validate:"min=10,max=2000"`
	Rating int    `json:"rating" validate:"gte=1,lte=10"`
}

// Filter narrows List; set fields are AND-combined.
type Filter struct {
	FilmID *int64
	UserID *int64
}
