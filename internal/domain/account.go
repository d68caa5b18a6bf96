package domain

import "fmt"

// TenantMapping is one row of schema_mapping: the login identifier directory
type TenantMapping struct {
	Username string `db:"username" json:"username"`
	Schema   string `db:"schema" json:"schema"`
}

// CenterType is the kind of a service/repair center
type CenterType string

const (
	CenterService       CenterType = "S"
	CenterRepair        CenterType = "R"
	CenterServiceRepair CenterType = "B"
)

// SchemaPrefix returns the tenant schema prefix for the center type
func (t CenterType) SchemaPrefix() (string, error) {
	switch t {
	case CenterService:
		return "service_", nil
	case CenterRepair:
		return "repair_", nil
	case CenterServiceRepair:
		return "service_repair_", nil
	default:
		return "", fmt.Errorf("%w: invalid center type %q", ErrValidation, string(t))
	}
}

// Label is the human readable center type
func (t CenterType) Label() string {
	switch t {
	case CenterService:
		return "Service"
	case CenterRepair:
		return "Repair"
	case CenterServiceRepair:
		return "Service and Repair"
	default:
		return string(t)
	}
}

// Credentials is the stored secret material of any account kind
type Credentials struct {
	ID         int64
	Username   string
	Name       string
	Salt       string
	Hash       []byte
	Privileges string
	Schema     string // tenant schema owned by (center) or employing (employee) the account
	IsActive   bool
}

// Address fields shared by owners and centers
type Address struct {
	Street1  string `db:"street_1" json:"street_1"`
	Street2  string `db:"street_2" json:"street_2"`
	City     string `db:"city" json:"city"`
	Province string `db:"province" json:"province"`
}

// Owner is a vehicle owner account (platform schema "owner" table)
type Owner struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Name     string `db:"name" json:"name"`
	Gender   string `db:"gender" json:"gender"`
	Dob      Date   `db:"dob" json:"dob"`
	Address
	Phone string `db:"phone" json:"phone"`
	Email string `db:"email" json:"email"`
	NIC   string `db:"nic" json:"nic"`
	Roles string `db:"roles" json:"roles"`
}

// OwnerPatch lists the owner profile fields a caller may change
type OwnerPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Gender   *string `json:"gender" validate:"omitempty,oneof=M F O"`
	Dob      *Date   `json:"dob"`
	Street1  *string `json:"street_1"`
	Street2  *string `json:"street_2"`
	City     *string `json:"city"`
	Province *string `json:"province"`
	Phone    *string `json:"phone" validate:"omitempty,numeric,len=10"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

func (p OwnerPatch) Fields() map[string]any {
	f := map[string]any{}
	putString(f, "name", p.Name)
	putString(f, "gender", p.Gender)
	if p.Dob != nil {
		f["dob"] = *p.Dob
	}
	putString(f, "street_1", p.Street1)
	putString(f, "street_2", p.Street2)
	putString(f, "city", p.City)
	putString(f, "province", p.Province)
	putString(f, "phone", p.Phone)
	putString(f, "email", p.Email)
	return f
}

// Center is the tenant root account (platform schema "center" table)
type Center struct {
	ID         int64      `db:"id" json:"id"`
	CenterType CenterType `db:"center_type" json:"center_type"`
	Username   string     `db:"username" json:"username"`
	Name       string     `db:"name" json:"name"`
	Address
	Phone      string `db:"phone" json:"phone"`
	Email      string `db:"email" json:"email"`
	Roles      string `db:"roles" json:"roles"`
	SchemaName string `db:"schema_name" json:"schema_name"`
}

// CenterPatch lists the center profile fields a caller may change.
// The name is display only; the tenant schema keeps the name it was provisioned with.
type CenterPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Street1  *string `json:"street_1"`
	Street2  *string `json:"street_2"`
	City     *string `json:"city"`
	Province *string `json:"province"`
	Phone    *string `json:"phone" validate:"omitempty,numeric,len=10"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

func (p CenterPatch) Fields() map[string]any {
	f := map[string]any{}
	putString(f, "name", p.Name)
	putString(f, "street_1", p.Street1)
	putString(f, "street_2", p.Street2)
	putString(f, "city", p.City)
	putString(f, "province", p.Province)
	putString(f, "phone", p.Phone)
	putString(f, "email", p.Email)
	return f
}

// CenterSummary is the public listing of a center
type CenterSummary struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Username   string     `db:"username" json:"username"`
	CenterType CenterType `db:"center_type" json:"center_type"`
	City       string     `db:"city" json:"city"`
}

// Parameter is a row of a platform lookup table (gender, fuel_type, transmission_type)
type Parameter struct {
	ID          int64  `db:"id" json:"id"`
	Description string `db:"description" json:"description"`
}

func putString(f map[string]any, col string, v *string) {
	if v != nil {
		f[col] = *v
	}
}
