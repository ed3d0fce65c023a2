package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Vehicle is a fleet asset. The last known position is written by the
// driver app while the vehicle is on an InProgress trip.
type Vehicle struct {
	Base
	RegistrationNumber string     `json:"registrationNumber"`
	Make               string     `json:"make"`
	Model              string     `json:"model"`
	VehicleType        string     `json:"vehicleType"`
	CapacityKg         float64    `json:"capacityKg"`
	CapacityM3         float64    `json:"capacityM3"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	LocationUpdatedOn  *time.Time `json:"locationUpdatedOn,omitempty"`
}

func (*Vehicle) TableName() string { return "vehicles" }

func (*Vehicle) Columns() []string {
	return withBase("registration_number", "make", "model", "vehicle_type", "capacity_kg", "capacity_m3",
		"latitude", "longitude", "location_updated_on")
}

func (v *Vehicle) Values() []any {
	return append(v.baseValues(), v.RegistrationNumber, v.Make, v.Model, v.VehicleType, v.CapacityKg, v.CapacityM3,
		v.Latitude, v.Longitude, v.LocationUpdatedOn)
}

func (v *Vehicle) ScanDest() []any {
	return append(v.baseDest(), &v.RegistrationNumber, &v.Make, &v.Model, &v.VehicleType, &v.CapacityKg, &v.CapacityM3,
		&v.Latitude, &v.Longitude, &v.LocationUpdatedOn)
}

// Driver is a licensed operator. UserID links the mobile app account.
type Driver struct {
	Base
	Name          string     `json:"name"`
	LicenseNumber string     `json:"licenseNumber"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email"`
	UserID        *uuid.UUID `json:"userId,omitempty"`
}

func (*Driver) TableName() string { return "drivers" }

func (*Driver) Columns() []string {
	return withBase("name", "license_number", "phone", "email", "user_id")
}

func (d *Driver) Values() []any {
	return append(d.baseValues(), d.Name, d.LicenseNumber, d.Phone, d.Email, d.UserID)
}

func (d *Driver) ScanDest() []any {
	return append(d.baseDest(), &d.Name, &d.LicenseNumber, &d.Phone, &d.Email, &d.UserID)
}

type Customer struct {
	Base
	Code    string `json:"code"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (*Customer) TableName() string { return "customers" }

func (*Customer) Columns() []string {
	return withBase("code", "name", "email", "phone", "address")
}

func (c *Customer) Values() []any {
	return append(c.baseValues(), c.Code, c.Name, c.Email, c.Phone, c.Address)
}

func (c *Customer) ScanDest() []any {
	return append(c.baseDest(), &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address)
}

// Organization is the operating company a trip runs under.
type Organization struct {
	Base
	Code        string `json:"code"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	ContactName string `json:"contactName"`
	Phone       string `json:"phone"`
}

func (*Organization) TableName() string { return "organizations" }

func (*Organization) Columns() []string {
	return withBase("code", "name", "address", "contact_name", "phone")
}

func (o *Organization) Values() []any {
	return append(o.baseValues(), o.Code, o.Name, o.Address, o.ContactName, o.Phone)
}

func (o *Organization) ScanDest() []any {
	return append(o.baseDest(), &o.Code, &o.Name, &o.Address, &o.ContactName, &o.Phone)
}
