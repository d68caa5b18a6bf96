package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// HistoryPointer references a service record living in some tenant schema
type HistoryPointer struct {
	Schema   string `json:"schema"`
	RecordID int64  `json:"record_id"`
}

// HistoryPointers is the JSONB service_history column of a vehicle
type HistoryPointers []HistoryPointer

func (h *HistoryPointers) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*h = HistoryPointers{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into HistoryPointers", value)
	}
	var out HistoryPointers
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode service_history: %w", err)
	}
	*h = out
	return nil
}

func (h HistoryPointers) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BySchema groups record ids per tenant schema, keeping first-seen schema order
func (h HistoryPointers) BySchema() ([]string, map[string][]int64) {
	order := []string{}
	groups := map[string][]int64{}
	for _, p := range h {
		if _, ok := groups[p.Schema]; !ok {
			order = append(order, p.Schema)
		}
		groups[p.Schema] = append(groups[p.Schema], p.RecordID)
	}
	return order, groups
}

// Vehicle is platform global
type Vehicle struct {
	VehicleID        int64           `db:"vehicle_id" json:"vehicle_id"`
	NumberPlate      string          `db:"number_plate" json:"number_plate"`
	Model            string          `db:"model" json:"model"`
	Make             string          `db:"make" json:"make"`
	EngineNo         string          `db:"engine_no" json:"engine_no"`
	ChassisNo        string          `db:"chassis_no" json:"chassis_no"`
	TransmissionType int64           `db:"transmission_type" json:"transmission_type"`
	FuelType         int64           `db:"fuel_type" json:"fuel_type"`
	SeatingCapacity  int             `db:"seating_capacity" json:"seating_capacity"`
	Mileage          decimal.Decimal `db:"mileage" json:"mileage"`
	ServiceHistory   HistoryPointers `db:"service_history" json:"service_history,omitempty"`
	RegYear          *int            `db:"reg_year" json:"reg_year,omitempty"`
}
