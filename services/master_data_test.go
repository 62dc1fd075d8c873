package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/club-pos/models"
)

func TestTableCRUD(t *testing.T) {
	f := newFixture(t)
	tables := NewTableService(f.db)
	var ve *ValidationError
	var ce *ConflictError

	created, err := tables.Create(ctx, admin, TableInput{TableNumber: " VIP ", Capacity: 8})
	require.NoError(t, err)
	assert.Equal(t, "VIP", created.TableNumber)
	assert.Equal(t, models.TableStatusAvailable, created.Status)

	_, err = tables.Create(ctx, admin, TableInput{TableNumber: "VIP", Capacity: 2})
	assert.ErrorAs(t, err, &ve, "duplicate number")
	_, err = tables.Create(ctx, admin, TableInput{TableNumber: "C1", Capacity: 0})
	assert.ErrorAs(t, err, &ve, "zero capacity")
	_, err = tables.Create(ctx, admin, TableInput{TableNumber: "C1", Capacity: 2, Status: models.TableStatusOccupied})
	assert.ErrorAs(t, err, &ve, "occupied is set by sessions only")
	_, err = tables.Create(ctx, f.staffActor(), TableInput{TableNumber: "C1", Capacity: 2})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := tables.Update(ctx, admin, created.ID, TableInput{Capacity: 10, Status: models.TableStatusMaintenance})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Capacity)
	assert.Equal(t, models.TableStatusMaintenance, updated.Status)

	require.NoError(t, tables.Delete(ctx, admin, created.ID))
	_, err = tables.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// A seated table keeps its status and its history.
	f.open(t, f.tables[0], "Tanaka", 0)
	_, err = tables.Update(ctx, admin, f.tables[0].ID, TableInput{Status: models.TableStatusReserved})
	assert.ErrorAs(t, err, &ce)
	err = tables.Delete(ctx, admin, f.tables[0].ID)
	assert.ErrorAs(t, err, &ce)

	list, err := tables.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestMenuCRUD(t *testing.T) {
	f := newFixture(t)
	menu := NewMenuService(f.db)
	var ve *ValidationError
	var ce *ConflictError

	item, err := menu.Create(ctx, admin, MenuItemInput{Name: "Oolong Tea", Category: models.MenuCategoryDrink, Price: 600})
	require.NoError(t, err)
	assert.True(t, item.IsAvailable)

	_, err = menu.Create(ctx, admin, MenuItemInput{Name: "Mystery", Category: "misc", Price: 1})
	assert.ErrorAs(t, err, &ve)
	_, err = menu.Create(ctx, admin, MenuItemInput{Name: "Refund", Category: models.MenuCategoryService, Price: -5})
	assert.ErrorAs(t, err, &ve)
	_, err = menu.Create(ctx, admin, MenuItemInput{Name: "Half Shot", Category: models.MenuCategoryDrink, Price: 450.5})
	assert.ErrorAs(t, err, &ve)

	off := false
	item, err = menu.Update(ctx, admin, item.ID, MenuItemInput{Price: 700, IsAvailable: &off})
	require.NoError(t, err)
	assert.Equal(t, 700.0, item.Price)
	assert.False(t, item.IsAvailable)

	available, err := menu.List(ctx, MenuFilter{Category: models.MenuCategoryDrink, AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "Highball", available[0].Name)

	require.NoError(t, menu.Delete(ctx, admin, item.ID))

	s := f.open(t, f.tables[0], "Tanaka", 0)
	_, err = f.ledger.AddOrders(ctx, f.staffActor(), s.ID, []OrderLine{{MenuItemID: f.menu["Highball"].ID, Quantity: 1}})
	require.NoError(t, err)
	err = menu.Delete(ctx, admin, f.menu["Highball"].ID)
	assert.ErrorAs(t, err, &ce, "ordered items stay for the history")
}
