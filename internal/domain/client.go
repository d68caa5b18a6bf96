package domain

import "github.com/shopspring/decimal"

// Client links a platform vehicle and its owner to one tenant
type Client struct {
	ID           int64           `db:"id" json:"id"`
	VehicleID    int64           `db:"vehicle_id" json:"vehicle_id"`
	DateOfReg    Date            `db:"date_of_reg" json:"date_of_reg"`
	MileageOnReg decimal.Decimal `db:"mileage_on_reg" json:"mileage_on_reg"`
	OwnerID      int64           `db:"owner" json:"owner_id"`
}

// ClientView is a client joined with its platform vehicle and owner
type ClientView struct {
	Client
	NumberPlate      string `db:"number_plate" json:"number_plate"`
	Model            string `db:"model" json:"model"`
	Make             string `db:"make" json:"make"`
	EngineNo         string `db:"engine_no" json:"engine_no"`
	ChassisNo        string `db:"chassis_no" json:"chassis_no"`
	TransmissionType string `db:"transmission_type" json:"transmission_type"`
	FuelType         string `db:"fuel_type" json:"fuel_type"`
	SeatingCapacity  int    `db:"seating_capacity" json:"seating_capacity"`
	OwnerName        string `db:"owner_name" json:"owner_name"`
	OwnerContact     string `db:"owner_contact" json:"owner_contact"`
	OwnerEmail       string `db:"owner_email" json:"owner_email"`
}

type ClientPatch struct {
	DateOfReg    *Date            `json:"date_of_reg"`
	MileageOnReg *decimal.Decimal `json:"mileage_on_reg"`
	OwnerID      *int64           `json:"owner_id" validate:"omitempty,gt=0"`
}

func (p ClientPatch) Fields() map[string]any {
	f := map[string]any{}
	if p.DateOfReg != nil {
		f["date_of_reg"] = *p.DateOfReg
	}
	if p.MileageOnReg != nil {
		f["mileage_on_reg"] = *p.MileageOnReg
	}
	if p.OwnerID != nil {
		f["owner"] = *p.OwnerID
	}
	return f
}
