package repo

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/employee/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

// Filters is the set of field selectors an employee listing accepts.
var Filters = database.Filters{
	"name":         {Column: "name"},
	"username":     {Column: "username"},
	"email":        {Column: "email"},
	"phone_number": {Column: "phone_number"},
	"address":      {Column: "address"},
	"role":         {Column: "role"},
}

const selectEmployee = `SELECT id, name, date_of_birth, gender, address, phone_number, email, username, role, locked FROM employees`

// EmployeeRepo provides data access for the employees table.
type EmployeeRepo struct {
	exec *database.Executor
}

func NewEmployeeRepo(exec *database.Executor) *EmployeeRepo { return &EmployeeRepo{exec: exec} }

func (r *EmployeeRepo) List(ctx context.Context, keyword, filter string) ([]entity.Employee, error) {
	if filter == "" || keyword == "" {
		return database.Select[entity.Employee](ctx, r.exec, selectEmployee+` ORDER BY id`, nil)
	}
	pred, params, err := Filters.Predicate(filter, keyword)
	if err != nil {
		return nil, err
	}
	return database.Select[entity.Employee](ctx, r.exec, selectEmployee+` WHERE `+pred+` ORDER BY id`, params)
}

func (r *EmployeeRepo) GetByID(ctx context.Context, id int64) (*entity.Employee, error) {
	return database.Get[entity.Employee](ctx, r.exec, selectEmployee+` WHERE id = :id`, map[string]any{"id": id})
}

func (r *EmployeeRepo) GetByUsername(ctx context.Context, username string) (*entity.Employee, error) {
	return database.Get[entity.Employee](ctx, r.exec, selectEmployee+` WHERE username = :username`, map[string]any{"username": username})
}

func (r *EmployeeRepo) Create(ctx context.Context, e *entity.Employee) (int64, error) {
	q := `INSERT INTO employees (name, date_of_birth, gender, address, phone_number, email, username, role, locked)
		  VALUES (:name, :date_of_birth, :gender, :address, :phone_number, :email, :username, :role, :locked) RETURNING id`
	return r.exec.ExecuteReturning(ctx, q, e)
}

// Update rewrites the personal and contact fields. Username, role and the
// lock flag are managed separately.
func (r *EmployeeRepo) Update(ctx context.Context, e *entity.Employee) (int64, error) {
	q := `UPDATE employees SET name = :name, date_of_birth = :date_of_birth, gender = :gender,
		  address = :address, phone_number = :phone_number, email = :email WHERE id = :id`
	return r.exec.Execute(ctx, q, e)
}

func (r *EmployeeRepo) SetLocked(ctx context.Context, username string, locked bool) (int64, error) {
	return r.exec.Execute(ctx, `UPDATE employees SET locked = :locked WHERE username = :username`,
		map[string]any{"username": username, "locked": locked})
}
