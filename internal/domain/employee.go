package domain

import "github.com/shopspring/decimal"

// Employee lives in exactly one tenant schema
type Employee struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Username    string          `db:"username" json:"username"`
	Email       string          `db:"email" json:"email"`
	Contact     string          `db:"contact" json:"contact"`
	NIC         string          `db:"nic" json:"nic"`
	Gender      string          `db:"gender" json:"gender"`
	Dob         Date            `db:"dob" json:"dob"`
	ManagerID   *int64          `db:"manager_id" json:"manager_id"`
	Designation string          `db:"designation" json:"designation"`
	Salary      decimal.Decimal `db:"salary" json:"salary"`
	RoleID      *int64          `db:"roles" json:"roles"`
	RoleName    string          `db:"role_name" json:"role_name,omitempty"`
	IsActive    bool            `db:"is_active" json:"is_active"`
}

// EmployeePatch lists the employee fields a caller may change.
// Username and password are not part of it.
type EmployeePatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=120"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	Contact     *string          `json:"contact" validate:"omitempty,numeric,len=10"`
	NIC         *string          `json:"nic"`
	Gender      *string          `json:"gender" validate:"omitempty,oneof=M F O"`
	Dob         *Date            `json:"dob"`
	ManagerID   *int64           `json:"manager_id" validate:"omitempty,gt=0"`
	Designation *string          `json:"designation"`
	Salary      *decimal.Decimal `json:"salary"`
	RoleID      *int64           `json:"roles" validate:"omitempty,gt=0"`
	IsActive    *bool            `json:"is_active"`
}

func (p EmployeePatch) Fields() map[string]any {
	f := map[string]any{}
	putString(f, "name", p.Name)
	putString(f, "email", p.Email)
	putString(f, "contact", p.Contact)
	putString(f, "nic", p.NIC)
	putString(f, "gender", p.Gender)
	if p.Dob != nil {
		f["dob"] = *p.Dob
	}
	if p.ManagerID != nil {
		f["manager_id"] = *p.ManagerID
	}
	putString(f, "designation", p.Designation)
	if p.Salary != nil {
		f["salary"] = *p.Salary
	}
	if p.RoleID != nil {
		f["roles"] = *p.RoleID
	}
	if p.IsActive != nil {
		f["is_active"] = *p.IsActive
	}
	return f
}

// Role is a tenant scoped privilege bundle
type Role struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Privileges  string `db:"privileges" json:"privileges"`
}

type RolePatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=80"`
	Description *string `json:"description"`
	Privileges  *string `json:"privileges"`
}

func (p RolePatch) Fields() map[string]any {
	f := map[string]any{}
	putString(f, "name", p.Name)
	putString(f, "description", p.Description)
	putString(f, "privileges", p.Privileges)
	return f
}
