package entity

import "time"

// Customer is a row of the customers table. Phone number is the natural key.
type Customer struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	PhoneNumber string     `db:"phone_number" json:"phone_number"`
	Email       *string    `db:"email" json:"email,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *bool      `db:"gender" json:"gender,omitempty"`
}
