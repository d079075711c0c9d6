package entity

import "time"

type Role string

const (
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

func (r Role) Valid() bool { return r == RoleManager || r == RoleEmployee }

// LoginRole is the database role granted to a login of this role.
func (r Role) LoginRole() string {
	if r == RoleManager {
		return "retail_manager"
	}
	return "retail_employee"
}

// Employee is a row of the employees table. Username is also the employee's
// database login. Employees are locked, never deleted.
type Employee struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *bool      `db:"gender" json:"gender,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	PhoneNumber *string    `db:"phone_number" json:"phone_number,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Username    string     `db:"username" json:"username"`
	Role        Role       `db:"role" json:"role"`
	Locked      bool       `db:"locked" json:"locked"`
}
