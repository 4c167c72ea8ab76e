/*
Package storagemodels defines the value types shared by the modelstore layers.

Query Options:
Options carries the filter, ordering and window of a Find or FindAll:

	opts := &storagemodels.Options{
	    Where:  "brand = ? AND doors >= ?",
	    Values: []any{"Alfa Romeo", 4},
	    Order:  "id DESC",
	    Limit:  storagemodels.Int(10),
	}

Named placeholders are bound from Params instead:

	opts := &storagemodels.Options{
	    Where:  "brand = :brand OR brand = :brandname",
	    Params: map[string]any{"brand": "Fiat", "brandname": "Lancia"},
	}

Key-Attribute Store:
Item, Attribute, SelectRequest and SelectPage describe the wire shapes of the
SELECT-only key-attribute service, and PageOptions configures how the adapter
paginates over it.
*/
package storagemodels
