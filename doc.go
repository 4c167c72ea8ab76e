/*
Package modelstore is an active-record persistence layer. Models are
described once in a registry and stored either in a relational database or
in a key-attribute store whose SQL-like interface is emulated on top of a
paginated select and single-item puts and deletes.

Data flows from a lifecycle call through the SQL builder, the connection
registry and its statement cache, to the row decoder and the AfterGet hook:

	Find / FindAll / Save / Delete
	  -> sqlbuilder      (SELECT, INSERT, UPDATE, DELETE per dialect)
	  -> Connections     (one connection per config group)
	  -> datastore.Conn  (sqldb statement cache, or sdb emulation)
	  -> fieldset        (rows to records, joins to related records)
	  -> record.Hooks    (AfterGet)

Saving follows a fixed sequence: BeforeSave, an existence lookup choosing
between update and create, BeforeUpdate or BeforeCreate, the Validate hook
and the validity check, the statement, AfterUpdate or AfterCreate, the
snapshot of the persisted values and finally AfterSave. An update with no
changed field executes nothing and succeeds.

Basic Usage:

	registry.MustRegister(registry.Descriptor{Name: "Car"})
	registry.MustRegister(registry.Descriptor{Name: "Owner"})

	cfg, _ := config.LoadFromEnv()
	store, _ := modelstore.Open(ctx, cfg, nil)
	defer store.Close()

	cars, _ := store.Model("Car")
	car, _ := cars.Find(ctx, 1, "Owner")
	if car != nil {
		car.Set("doors", 2)
		ok, err := store.Save(ctx, car)
		...
	}

	// Field finders by name
	alfas, _ := cars.Call(ctx, "FindAllByBrand", "Alfa Romeo")

Missing records are not errors: Find returns nil with a nil error.
*/
package modelstore
