package tenant

// TableName is one of the fixed platform or tenant tables
type TableName string

// tenant tables, identical in every tenant schema
const (
	TableEmployee          TableName = "employee"
	TableRoles             TableName = "roles"
	TablePart              TableName = "part"
	TableServices          TableName = "services"
	TableClients           TableName = "clients"
	TableServiceRecords    TableName = "service_records"
	TableServiceTechnician TableName = "service_technician"
)

// platform tables
const (
	TableSchemaMapping    TableName = "schema_mapping"
	TableOwner            TableName = "owner"
	TableCenter           TableName = "center"
	TableVehicles         TableName = "vehicles"
	TableOwnerVehicle     TableName = "owner_vehicle"
	TableGender           TableName = "gender"
	TableFuelType         TableName = "fuel_type"
	TableTransmissionType TableName = "transmission_type"
)

// TableSpec is the update allow-list of one table
type TableSpec struct {
	Name      TableName
	Key       string
	Updatable []string
	Platform  bool
}

var (
	EmployeeSpec = TableSpec{
		Name: TableEmployee,
		Key:  "id",
		Updatable: []string{"name", "email", "contact", "nic", "gender", "dob",
			"manager_id", "designation", "salary", "roles", "is_active"},
	}
	RoleSpec = TableSpec{
		Name:      TableRoles,
		Key:       "id",
		Updatable: []string{"name", "description", "privileges"},
	}
	PartSpec = TableSpec{
		Name:      TablePart,
		Key:       "part_id",
		Updatable: []string{"name", "description", "manufacture_country", "quantity", "reorder_level", "price"},
	}
	ServiceTypeSpec = TableSpec{
		Name:      TableServices,
		Key:       "id",
		Updatable: []string{"name", "description", "cost"},
	}
	ClientSpec = TableSpec{
		Name:      TableClients,
		Key:       "id",
		Updatable: []string{"date_of_reg", "mileage_on_reg", "owner"},
	}
	ServiceRecordSpec = TableSpec{
		Name:      TableServiceRecords,
		Key:       "id",
		Updatable: []string{"service_date", "description", "mileage", "cost", "details", "is_ongoing"},
	}
	OwnerSpec = TableSpec{
		Name: TableOwner,
		Key:  "id",
		Updatable: []string{"name", "gender", "dob", "street_1", "street_2", "city",
			"province", "phone", "email"},
		Platform: true,
	}
	CenterSpec = TableSpec{
		Name:      TableCenter,
		Key:       "id",
		Updatable: []string{"name", "street_1", "street_2", "city", "province", "phone", "email"},
		Platform:  true,
	}
)
