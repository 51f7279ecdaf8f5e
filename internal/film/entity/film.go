package entity

import "time"

// Film is a row of the films table.
type Film struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Director  string    `db:"director" json:"director"`
	Year      int       `db:"year" json:"year"`
	Rating    float64   `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Input is the writable part of a film, shared by create and replace.
type Input struct {
	Title    string  `json:"title" validate:"required,max=200"`
	Director string  `json:"director" validate:"required,max=100"`
	Year     int     `json:"year" validate:"gt=1900"`
	Rating   float64 `json:"rating" validate:"gte=0,lte=10"`
}

// Filter narrows List. Title matches case-insensitively as a substring.
type Filter struct {
	Title string
	Skip  int
	Limit int
}
