package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ServiceRecord is one job performed by a tenant. IsOngoing separates active jobs from history.
type ServiceRecord struct {
	ID          int64           `db:"id" json:"id"`
	ClientID    int64           `db:"client_id" json:"client_id"`
	ServiceDate Date            `db:"service_date" json:"service_date"`
	Description string          `db:"description" json:"description"`
	Mileage     decimal.Decimal `db:"mileage" json:"mileage"`
	Cost        decimal.Decimal `db:"cost" json:"cost"`
	Details     json.RawMessage `db:"details" json:"details,omitempty"`
	IsOngoing   bool            `db:"is_ongoing" json:"is_ongoing"`
	Technicians []int64         `db:"technicians" json:"technicians"`
}

// ServiceRecordPatch lists the record columns a caller may change.
// TechnicianIDs replaces the technician set when present and is not a column.
type ServiceRecordPatch struct {
	ServiceDate   *Date            `json:"service_date"`
	Description   *string          `json:"description"`
	Mileage       *decimal.Decimal `json:"mileage"`
	Cost          *decimal.Decimal `json:"cost"`
	Details       *json.RawMessage `json:"details"`
	IsOngoing     *bool            `json:"is_ongoing"`
	TechnicianIDs *[]int64         `json:"technician_ids"`
}

func (p ServiceRecordPatch) Fields() map[string]any {
	f := map[string]any{}
	if p.ServiceDate != nil {
		f["service_date"] = *p.ServiceDate
	}
	putString(f, "description", p.Description)
	if p.Mileage != nil {
		f["mileage"] = *p.Mileage
	}
	if p.Cost != nil {
		f["cost"] = *p.Cost
	}
	if p.Details != nil {
		f["details"] = string(*p.Details)
	}
	if p.IsOngoing != nil {
		f["is_ongoing"] = *p.IsOngoing
	}
	return f
}

// HistoryEntry is a service record as seen from the vehicle owner's side
type HistoryEntry struct {
	Schema      string          `json:"schema"`
	CenterName  string          `json:"center_name,omitempty"`
	RecordID    int64           `json:"record_id"`
	ServiceDate Date            `json:"service_date"`
	Description string          `json:"description"`
	Mileage     decimal.Decimal `json:"mileage"`
	Cost        decimal.Decimal `json:"cost"`
	Details     json.RawMessage `json:"details,omitempty"`
	IsOngoing   bool            `json:"is_ongoing"`
}

// HistoryFailure reports a tenant whose records could not be read
type HistoryFailure struct {
	Schema string `json:"schema"`
	Error  string `json:"error"`
}

// VehicleHistory is the result of the cross-tenant scatter-gather
type VehicleHistory struct {
	Records  []HistoryEntry   `json:"records"`
	Failures []HistoryFailure `json:"failures"`
}

// HistoryFilter narrows a vehicle history. Zero values mean unbounded.
type HistoryFilter struct {
	FromDate       *Date            `json:"fromDate"`
	ToDate         *Date            `json:"toDate"`
	MinMileage     *decimal.Decimal `json:"minMileage"`
	MaxMileage     *decimal.Decimal `json:"maxMileage"`
	CenterUsername string           `json:"center"`
}
