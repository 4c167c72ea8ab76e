/*
Package registry manages model descriptors for modelstore.

A Descriptor is the static metadata of one model type: its table, primary
key, foreign-key overrides, database config group, read consistency and
lifecycle hooks. Defaults are filled in once at registration and the same
*Descriptor is returned by every lookup for the life of the registry:

	registry.Register(registry.Descriptor{Name: "Car"})
	// Table "cars", PrimaryKey "id", Database "default"

	registry.Register(registry.Descriptor{
	    Name:        "Car",
	    ForeignKeys: map[string]string{"Owner": "driver_id"},
	})

The package keeps a process-wide Default registry for init()-time
registration; tests and embedders can build their own with New.
*/
package registry
