package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Profile is a row of the profiles table. ID equals the id of the account
// created in the same registration.
type Profile struct {
	ID          int64     `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	FullName    *string   `db:"full_name" json:"full_name"`
	Bio         *string   `db:"bio" json:"bio"`
	Birthdate   *Date     `db:"birthdate" json:"birthdate"`
	PhoneNumber *string   `db:"phone_number" json:"phone_number"`
	Address     *string   `db:"address" json:"address"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Patch carries the fields of a partial update. A nil field is left unchanged;
// JSON null and an absent key are treated alike.
type Patch struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	FullName    *string `json:"full_name" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	Birthdate   *Date   `json:"birthdate"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Address     *string `json:"address" validate:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Email == nil && p.FullName == nil && p.Bio == nil && p.Birthdate == nil &&
		p.PhoneNumber == nil && p.Address == nil && p.IsActive == nil
}

// Apply copies the set fields onto pr.
func (p Patch) Apply(pr *Profile) {
	if p.Email != nil {
		pr.Email = *p.Email
	}
	if p.FullName != nil {
		pr.FullName = p.FullName
	}
	if p.Bio != nil {
		pr.Bio = p.Bio
	}
	if p.Birthdate != nil {
		pr.Birthdate = p.Birthdate
	}
	if p.PhoneNumber != nil {
		pr.PhoneNumber = p.PhoneNumber
	}
	if p.Address != nil {
		pr.Address = p.Address
	}
	if p.IsActive != nil {
		pr.IsActive = *p.IsActive
	}
}

// Filter narrows List.
type Filter struct {
	IsActive *bool
	Skip     int
	Limit    int
}

const dateLayout = "2006-01-02"

// Date is a calendar day, "YYYY-MM-DD" in JSON and DATE in postgres.
type Date struct {
	time.Time
}

func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("birthdate must be YYYY-MM-DD: %w", err)
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
