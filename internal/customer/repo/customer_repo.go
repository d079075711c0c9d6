package repo

import (
	"context"
	"time"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/customer/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

// Filters is the set of field selectors a customer listing accepts.
var Filters = database.Filters{
	"name":         {Column: "name"},
	"phone_number": {Column: "phone_number"},
	"email":        {Column: "email"},
}

const selectCustomer = `SELECT id, name, phone_number, email, date_of_birth, gender FROM customers`

// CustomerRepo provides data access for the customers table.
type CustomerRepo struct {
	exec *database.Executor
}

func NewCustomerRepo(exec *database.Executor) *CustomerRepo { return &CustomerRepo{exec: exec} }

// List returns customers ordered by id. An empty filter with a keyword searches
// name, phone number and email; an empty keyword lists everyone.
func (r *CustomerRepo) List(ctx context.Context, keyword, filter string) ([]entity.Customer, error) {
	if filter == "" {
		if keyword == "" {
			return database.Select[entity.Customer](ctx, r.exec, selectCustomer+` ORDER BY id`, nil)
		}
		return r.Search(ctx, keyword)
	}
	pred, params, err := Filters.Predicate(filter, keyword)
	if err != nil {
		return nil, err
	}
	return database.Select[entity.Customer](ctx, r.exec, selectCustomer+` WHERE `+pred+` ORDER BY id`, params)
}

// Search matches term against name, phone number and email, newest first.
func (r *CustomerRepo) Search(ctx context.Context, term string) ([]entity.Customer, error) {
	q := selectCustomer + ` WHERE LOWER(name) LIKE :term OR LOWER(phone_number) LIKE :term OR LOWER(email) LIKE :term ORDER BY id DESC`
	return database.Select[entity.Customer](ctx, r.exec, q, map[string]any{"term": database.Contains(term)})
}

func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*entity.Customer, error) {
	return database.Get[entity.Customer](ctx, r.exec, selectCustomer+` WHERE id = :id`, map[string]any{"id": id})
}

func (r *CustomerRepo) GetByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	return database.Get[entity.Customer](ctx, r.exec, selectCustomer+` WHERE phone_number = :phone_number`, map[string]any{"phone_number": phone})
}

// Create inserts a customer and returns the generated id.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) (int64, error) {
	q := `INSERT INTO customers (name, phone_number, email, date_of_birth, gender)
		  VALUES (:name, :phone_number, :email, :date_of_birth, :gender) RETURNING id`
	return r.exec.ExecuteReturning(ctx, q, params(c))
}

// Update rewrites the contact fields of one customer. The phone number is the
// lookup key and is not changed here.
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) (int64, error) {
	q := `UPDATE customers SET name = :name, email = :email, date_of_birth = :date_of_birth, gender = :gender WHERE id = :id`
	return r.exec.Execute(ctx, q, params(c))
}

func params(c *entity.Customer) map[string]any {
	var dob *time.Time
	if c.DateOfBirth != nil {
		d := c.DateOfBirth.UTC()
		dob = &d
	}
	return map[string]any{
		"id":            c.ID,
		"name":          c.Name,
		"phone_number":  c.PhoneNumber,
		"email":         c.Email,
		"date_of_birth": dob,
		"gender":        c.Gender,
	}
}
