package domain

import "github.com/shopspring/decimal"

// Part is one inventory line of a tenant
type Part struct {
	PartID             int64           `db:"part_id" json:"part_id"`
	Name               string          `db:"name" json:"name"`
	Description        string          `db:"description" json:"description"`
	ManufactureCountry string          `db:"manufacture_country" json:"manufacture_country"`
	Quantity           int             `db:"quantity" json:"quantity"`
	ReorderLevel       int             `db:"reorder_level" json:"reorder_level"`
	Price              decimal.Decimal `db:"price" json:"price"`
}

// NeedsReorder reports whether stock is at or below the reorder level
func (p Part) NeedsReorder() bool {
	return p.Quantity <= p.ReorderLevel
}

type PartPatch struct {
	Name               *string          `json:"name" validate:"omitempty,min=1"`
	Description        *string          `json:"description"`
	ManufactureCountry *string          `json:"manufacture_country"`
	Quantity           *int             `json:"quantity" validate:"omitempty,gte=0"`
	ReorderLevel       *int             `json:"reorder_level" validate:"omitempty,gte=0"`
	Price              *decimal.Decimal `json:"price"`
}

func (p PartPatch) Fields() map[string]any {
	f := map[string]any{}
	putString(f, "name", p.Name)
	putString(f, "description", p.Description)
	putString(f, "manufacture_country", p.ManufactureCountry)
	if p.Quantity != nil {
		f["quantity"] = *p.Quantity
	}
	if p.ReorderLevel != nil {
		f["reorder_level"] = *p.ReorderLevel
	}
	if p.Price != nil {
		f["price"] = *p.Price
	}
	return f
}

// ServiceType is an entry of a tenant's service catalog ("services" table)
type ServiceType struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Cost        decimal.Decimal `db:"cost" json:"cost"`
}

type ServiceTypePatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Description *string          `json:"description"`
	Cost        *decimal.Decimal `json:"cost"`
}

func (p ServiceTypePatch) Fields() map[string]any {
	f := map[string]any{}
	putString(f, "name", p.Name)
	putString(f, "description", p.Description)
	if p.Cost != nil {
		f["cost"] = *p.Cost
	}
	return f
}
