package testmodels

import (
	"github.com/go-openapi/strfmt"

	"github.com/suparena/modelstore/registry"
)

// Model names of the test fixtures.
const (
	CarModel   = "Car"
	OwnerModel = "Owner"
)

type Car struct {

	// Unique identifier, assigned by storage when empty.
	ID any `db:"id,omitempty"`

	// Manufacturer of the car.
	// Required: true
	Brand string `db:"brand"`

	// Number of doors; storage defaults to 4.
	Doors int64 `db:"doors,omitempty"`

	// Body color.
	Color *string `db:"color"`

	// Identifier of the owning Owner.
	OwnerID any `db:"owner_id,omitempty"`

	// Timestamp of the registration.
	// Format: date-time
	RegisteredAt *strfmt.DateTime `db:"registered_at"`
}

type Owner struct {

	// Unique identifier, assigned by storage when empty.
	ID any `db:"id,omitempty"`

	// Full name of the owner.
	// Required: true
	Name string `db:"name"`
}

// CarDescriptor describes Car, stored in "cars" and joined to Owner through
// the owner_id column.
func CarDescriptor() registry.Descriptor {
	return registry.Descriptor{Name: CarModel}
}

// OwnerDescriptor describes Owner, stored in "owners".
func OwnerDescriptor() registry.Descriptor {
	return registry.Descriptor{Name: OwnerModel}
}

// Register adds both fixtures with default settings to reg.
func Register(reg *registry.Registry) {
	reg.MustRegister(CarDescriptor())
	reg.MustRegister(OwnerDescriptor())
}

// SQLiteSchema creates the fixture tables.
const SQLiteSchema = `
CREATE TABLE owners (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL DEFAULT ''
);
CREATE TABLE cars (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	brand TEXT NOT NULL DEFAULT '',
	doors INTEGER NOT NULL DEFAULT 4,
	color VARCHAR(16),
	owner_id INTEGER REFERENCES owners(id),
	registered_at DATETIME
);
`
