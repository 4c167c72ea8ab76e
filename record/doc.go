/*
Package record holds the in-memory representation of one stored row or item.

A Record keeps its attributes in insertion order, a snapshot of the values it
had when it was constructed, loaded or last saved, and a map of validation
messages. The snapshot drives change tracking: Changed() lists the fields
whose current value differs from it, and an update only writes those fields.

	car := record.New("Car", "id")
	car.Set("brand", "Alfa Romeo")
	car.Set("doors", 4)
	car.Snapshot()

	car.Set("doors", 2)
	car.Changed() // ["doors"]

The primary key is read and written through ID() and SetID() using the key
field name given at construction.
*/
package record
