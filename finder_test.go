/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/datastore/testmodels"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/record"
)

func seedCars(t *testing.T) *fixture {
	t.Helper()
	conn, db := newSQLite(t)
	execSQL(t, db, `INSERT INTO owners (id, name) VALUES (7, 'Ada')`)
	execSQL(t, db, `INSERT INTO cars (id, brand, doors, color, owner_id) VALUES
		(1, 'Fiat', 2, 'red', 7),
		(2, 'Fiat', 4, NULL, NULL),
		(3, 'Lancia', 4, 'blue', 7),
		(4, 'Alfa Romeo', 5, NULL, NULL)`)
	return newFixture(t, conn, false)
}

func TestCall_FindBy(t *testing.T) {
	ctx := context.Background()
	f := seedCars(t)

	got, err := f.cars.Call(ctx, "FindByBrand", "Lancia")
	require.NoError(t, err)
	car, ok := got.(*record.Record)
	require.True(t, ok)
	assert.Equal(t, int64(3), car.ID())

	got, err = f.cars.Call(ctx, "FindByBrand", "Bugatti")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.cars.Call(ctx, "FindByBrand", "Lancia", testmodels.OwnerModel)
	require.NoError(t, err)
	car = got.(*record.Record)
	require.NotNil(t, car.Related(testmodels.OwnerModel))
	assert.Equal(t, "Ada", car.Related(testmodels.OwnerModel).String("name"))
}

func TestCall_FindAllByWithOperator(t *testing.T) {
	ctx := context.Background()
	f := seedCars(t)

	got, err := f.cars.Call(ctx, "FindAllByDoors", 3, ">")
	require.NoError(t, err)
	cars, ok := got.([]*record.Record)
	require.True(t, ok)
	assert.Len(t, cars, 3)

	got, err = f.cars.Call(ctx, "FindAllByBrand", "%a%", "like")
	require.NoError(t, err)
	assert.Len(t, got.([]*record.Record), 4)

	got, err = f.cars.Call(ctx, "FindAllByColor", nil)
	require.NoError(t, err)
	assert.Len(t, got.([]*record.Record), 2, "nil compares with IS NULL")

	got, err = f.cars.Call(ctx, "FindAllByColor", nil, "!=")
	require.NoError(t, err)
	assert.Len(t, got.([]*record.Record), 2)
}

func TestCall_CountFindAllBy(t *testing.T) {
	ctx := context.Background()
	f := seedCars(t)

	got, err := f.cars.Call(ctx, "CountFindAllByBrand", "Fiat")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	n, err := f.cars.CountBy(ctx, "doors", 4, "<=")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCall_Rejections(t *testing.T) {
	ctx := context.Background()
	f := seedCars(t)

	_, err := f.cars.Call(ctx, "Fetch", 1)
	assert.True(t, errors.IsValidationError(err))

	_, err = f.cars.Call(ctx, "FindByBrand")
	assert.True(t, errors.IsValidationError(err))

	_, err = f.cars.Call(ctx, "FindByBrand", "Fiat", 12)
	assert.True(t, errors.IsValidationError(err))

	_, err = f.cars.FindBy(ctx, "doors", 2, "~")
	assert.True(t, errors.IsValidationError(err))

	_, err = f.cars.FindBy(ctx, "doors", nil, ">")
	assert.True(t, errors.IsValidationError(err))

	_, err = f.cars.Call(ctx, "FindByBrand", "Fiat", "Garage")
	assert.True(t, errors.IsRelatedTypeNotFound(err))
}
