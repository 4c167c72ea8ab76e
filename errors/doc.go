/*
Package errors provides semantic error types for the modelstore library.

The package defines the failure kinds a caller needs to tell apart. Each typed
error matches its sentinel with the standard errors.Is() function, and helper
predicates are provided for the common checks.

Sentinels:

	var (
	    ErrNotFound               = errors.New("record not found")
	    ErrInvalidInput           = errors.New("invalid input")
	    ErrInvalidConfiguration   = errors.New("invalid configuration")
	    ErrInvalidField           = errors.New("invalid field")
	    ErrTypeNotFound           = errors.New("model type not found")
	    ErrRelatedTypeNotFound    = errors.New("related model type not found")
	    ErrMutationFailed         = errors.New("mutation failed")
	    ErrStorage                = errors.New("storage error")
	    ErrKeyGenerationExhausted = errors.New("key generation exhausted")
	)

Usage:

	cars, err := store.Model("Car").Call(ctx, "FindAllByColour", "red")
	if err != nil {
	    if errors.IsInvalidField(err) {
	        // the cars table has no colour column: an application bug
	    }
	    return err
	}

Validation failures during Save are not errors: Save returns false and the
record's error map describes what failed.
*/
package errors
