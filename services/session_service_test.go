package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/club-pos/models"
)

func TestOpenSessionOccupiesTable(t *testing.T) {
	f := newFixture(t)
	table := f.tables[0]

	s := f.open(t, table, "Tanaka", 0)

	assert.Equal(t, models.SessionStatusActive, s.Status)
	assert.Nil(t, s.CastID)
	assert.Equal(t, f.staff.ID, s.StaffID)
	assert.Equal(t, openedAt, s.StartTime)
	assert.Equal(t, models.TableStatusOccupied, f.tableStatus(t, table.ID))

	var active int64
	require.NoError(t, f.db.Model(&models.Session{}).
		Where("table_id = ? AND status = ?", table.ID, models.SessionStatusActive).Count(&active).Error)
	assert.EqualValues(t, 1, active)
}

func TestOpenSessionReusesCustomerByName(t *testing.T) {
	f := newFixture(t)
	first := f.open(t, f.tables[0], "Tanaka", 0)
	second := f.open(t, f.tables[1], "  Tanaka ", 0)

	assert.Equal(t, first.CustomerID, second.CustomerID)
}

func TestOpenSessionRejectsOccupiedTable(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.tables[0], "Tanaka", 0)

	_, err := f.ledger.OpenSession(ctx, f.staffActor(), OpenSessionInput{
		CustomerName: "Sato", PartySize: 2, TableID: f.tables[0].ID,
	})
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)
}

func TestOpenSessionValidation(t *testing.T) {
	f := newFixture(t)
	small := f.tables[2] // capacity 2

	cases := map[string]OpenSessionInput{
		"missing name":  {PartySize: 2, TableID: small.ID},
		"empty party":   {CustomerName: "Sato", PartySize: 0, TableID: small.ID},
		"no table":      {CustomerName: "Sato", PartySize: 2},
		"unknown table": {CustomerName: "Sato", PartySize: 2, TableID: 999},
		"over capacity": {CustomerName: "Sato", PartySize: 3, TableID: small.ID},
		"unknown cast":  {CustomerName: "Sato", PartySize: 2, TableID: small.ID, CastID: 999},
		"staff as cast": {CustomerName: "Sato", PartySize: 2, TableID: small.ID, CastID: f.staff.ID},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ledger.OpenSession(ctx, f.staffActor(), in)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	assert.Equal(t, models.TableStatusAvailable, f.tableStatus(t, small.ID))
}

func TestMutationsRequireStaff(t *testing.T) {
	f := newFixture(t)
	castActor := Actor{UserID: f.cast.ID, Role: models.RoleCast}

	_, err := f.ledger.OpenSession(ctx, castActor, OpenSessionInput{
		CustomerName: "Sato", PartySize: 1, TableID: f.tables[0].ID,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.ledger.OpenSession(ctx, Actor{}, OpenSessionInput{
		CustomerName: "Sato", PartySize: 1, TableID: f.tables[0].ID,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAddOrdersSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", 0)
	highball := f.menu["Highball"]

	orders, err := f.ledger.AddOrders(ctx, f.staffActor(), s.ID, []OrderLine{
		{MenuItemID: highball.ID, Quantity: 2},
		{MenuItemID: f.menu["Karaage"].ID, Quantity: 0},
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 800.0, orders[0].UnitPrice)
	assert.Equal(t, 1600.0, orders[0].TotalPrice)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)

	// A later price change does not touch the recorded order.
	require.NoError(t, f.db.Model(&highball).Update("price", 1000).Error)
	summary, err := f.ledger.PreviewCheckout(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1600.0, summary.Bill.Subtotal)
}

func TestAddOrdersForTable(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[1], "Tanaka", 0)

	orders, err := f.ledger.AddOrdersForTable(ctx, f.staffActor(), f.tables[1].ID, []OrderLine{
		{MenuItemID: f.menu["Champagne"].ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, s.ID, orders[0].SessionID)

	_, err = f.ledger.AddOrdersForTable(ctx, f.staffActor(), f.tables[0].ID, []OrderLine{
		{MenuItemID: f.menu["Champagne"].ID, Quantity: 1},
	})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestAddOrdersRejectsBadLines(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", 0)

	cases := map[string][]OrderLine{
		"nothing selected": {{MenuItemID: f.menu["Highball"].ID, Quantity: 0}},
		"negative":         {{MenuItemID: f.menu["Highball"].ID, Quantity: -1}},
		"unavailable":      {{MenuItemID: f.menu["Old Wine"].ID, Quantity: 1}},
		"unknown item":     {{MenuItemID: 999, Quantity: 1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ledger.AddOrders(ctx, f.staffActor(), s.ID, lines)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAddOrdersToCompletedSession(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", 0)
	_, err := f.ledger.Checkout(ctx, f.staffActor(), s.ID)
	require.NoError(t, err)

	_, err = f.ledger.AddOrders(ctx, f.staffActor(), s.ID, []OrderLine{{MenuItemID: f.menu["Highball"].ID, Quantity: 1}})
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)
}

// Tanaka is seated, orders two highballs and checks out two hours later.
func TestFullVisitBilling(t *testing.T) {
	f := newFixture(t)
	table := f.tables[0]

	s := f.open(t, table, "Tanaka", 0)
	_, err := f.ledger.AddOrders(ctx, f.staffActor(), s.ID, []OrderLine{
		{MenuItemID: f.menu["Highball"].ID, Quantity: 2},
	})
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	result, err := f.ledger.Checkout(ctx, f.staffActor(), s.ID)
	require.NoError(t, err)

	assert.Equal(t, 1600.0, result.Bill.Subtotal)
	assert.Equal(t, 3000.0, result.Bill.SeatCharge)
	assert.Equal(t, 1, result.Bill.ExtensionHours)
	assert.Equal(t, 1000.0, result.Bill.ExtensionCharge)
	assert.Equal(t, 5600.0, result.Bill.Total)

	var stored models.Session
	require.NoError(t, f.db.First(&stored, s.ID).Error)
	assert.Equal(t, models.SessionStatusCompleted, stored.Status)
	require.NotNil(t, stored.EndTime)
	require.NotNil(t, stored.TotalAmount)
	assert.Equal(t, 5600.0, *stored.TotalAmount)
	assert.False(t, stored.EndTime.Before(stored.StartTime))
	assert.Equal(t, models.TableStatusAvailable, f.tableStatus(t, table.ID))

	var sales []models.Sale
	require.NoError(t, f.db.Find(&sales).Error)
	require.Len(t, sales, 1)
	assert.Equal(t, 5600.0, sales[0].TotalAmount)
	assert.Equal(t, s.ID, sales[0].SessionID)
	assert.Equal(t, f.staff.ID, sales[0].StaffID)
}

func TestCheckoutTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", 0)
	_, err := f.ledger.Checkout(ctx, f.staffActor(), s.ID)
	require.NoError(t, err)

	_, err = f.ledger.Checkout(ctx, f.staffActor(), s.ID)
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)

	var n int64
	require.NoError(t, f.db.Model(&models.Sale{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

// A failing write inside checkout rolls back every step: the session stays
// active and the table stays occupied.
func TestCheckoutRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	table := f.tables[0]
	s := f.open(t, table, "Tanaka", 0)

	require.NoError(t, f.db.Create(&models.Sale{
		SessionID:   s.ID,
		StaffID:     s.StaffID,
		TotalAmount: 1,
		SaleDate:    s.StartTime,
	}).Error)

	_, err := f.ledger.Checkout(ctx, f.staffActor(), s.ID)
	require.Error(t, err)
	var se *StoreError
	assert.ErrorAs(t, err, &se)

	var stored models.Session
	require.NoError(t, f.db.First(&stored, s.ID).Error)
	assert.Equal(t, models.SessionStatusActive, stored.Status)
	assert.Nil(t, stored.EndTime)
	assert.Nil(t, stored.TotalAmount)
	assert.Equal(t, models.TableStatusOccupied, f.tableStatus(t, table.ID))

	var n int64
	require.NoError(t, f.db.Model(&models.Sale{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCheckoutUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Checkout(ctx, f.staffActor(), 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCheckoutUsesCurrentSettings(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", 0)

	_, err := NewSettingsService(f.db).Update(ctx, admin, map[string]string{
		KeySeatCharge: "5000", KeyExtensionFee: "2000",
	})
	require.NoError(t, err)

	f.advance(3*time.Hour + 59*time.Minute)
	result, err := f.ledger.Checkout(ctx, f.staffActor(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Bill.HoursElapsed)
	assert.Equal(t, 5000.0+2*2000, result.Bill.Total)
}

func TestPreviewCheckoutDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", f.cast.ID)
	_, err := f.ledger.AddOrders(ctx, f.staffActor(), s.ID, []OrderLine{{MenuItemID: f.menu["Karaage"].ID, Quantity: 1}})
	require.NoError(t, err)

	var before models.Session
	require.NoError(t, f.db.First(&before, s.ID).Error)

	f.advance(90 * time.Minute)
	first, err := f.ledger.PreviewCheckout(ctx, s.ID)
	require.NoError(t, err)
	second, err := f.ledger.PreviewCheckout(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Bill, second.Bill)
	assert.Equal(t, "Yuki", first.Session.Cast.Name)
	assert.Equal(t, "Karaage", first.Orders[0].MenuItem.Name)

	var after models.Session
	require.NoError(t, f.db.First(&after, s.ID).Error)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Equal(t, models.SessionStatusActive, after.Status)
	assert.Nil(t, after.EndTime)

	var sales int64
	require.NoError(t, f.db.Model(&models.Sale{}).Count(&sales).Error)
	assert.Zero(t, sales)
}

func TestPreviewCompletedSessionConflicts(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", 0)
	_, err := f.ledger.Checkout(ctx, f.staffActor(), s.ID)
	require.NoError(t, err)

	_, err = f.ledger.PreviewCheckout(ctx, s.ID)
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)
}

func TestCastCannotServeTwoTables(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.tables[0], "Tanaka", f.cast.ID)

	_, err := f.ledger.OpenSession(ctx, f.staffActor(), OpenSessionInput{
		CustomerName: "Sato", PartySize: 2, TableID: f.tables[1].ID, CastID: f.cast.ID,
	})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "A1")
	assert.Equal(t, models.TableStatusAvailable, f.tableStatus(t, f.tables[1].ID))
}

// A cast change aimed at a cast busy elsewhere is refused and nothing changes.
func TestChangeCastToBusyCast(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.tables[0], "Tanaka", f.cast.ID)
	other := f.open(t, f.tables[1], "Sato", f.cast2.ID)

	_, err := f.ledger.ChangeCast(ctx, f.staffActor(), other.ID, f.cast.ID)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)

	var stored models.Session
	require.NoError(t, f.db.First(&stored, other.ID).Error)
	require.NotNil(t, stored.CastID)
	assert.Equal(t, f.cast2.ID, *stored.CastID)
}

func TestChangeCastFreesPreviousCast(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", f.cast.ID)

	updated, err := f.ledger.ChangeCast(ctx, f.staffActor(), s.ID, f.cast2.ID)
	require.NoError(t, err)
	assert.Equal(t, f.cast2.ID, *updated.CastID)

	free, err := f.ledger.FreeCasts(ctx)
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, f.cast.ID, free[0].ID)

	// Reassigning the same cast is a no-op.
	_, err = f.ledger.ChangeCast(ctx, f.staffActor(), s.ID, f.cast2.ID)
	assert.NoError(t, err)
}

func TestMoveTable(t *testing.T) {
	f := newFixture(t)
	from, to := f.tables[0], f.tables[1]
	s := f.open(t, from, "Tanaka", 0)

	moved, err := f.ledger.MoveTable(ctx, f.staffActor(), s.ID, to.ID, "karaoke room")
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.TableID)
	assert.Equal(t, models.TableStatusAvailable, f.tableStatus(t, from.ID))
	assert.Equal(t, models.TableStatusOccupied, f.tableStatus(t, to.ID))
}

func TestMoveTableRejections(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", 0)
	f.open(t, f.tables[1], "Sato", 0)

	_, err := f.ledger.MoveTable(ctx, f.staffActor(), s.ID, f.tables[2].ID, "")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve, "reason is required")

	_, err = f.ledger.MoveTable(ctx, f.staffActor(), s.ID, f.tables[0].ID, "same")
	assert.ErrorAs(t, err, &ve)

	_, err = f.ledger.MoveTable(ctx, f.staffActor(), s.ID, f.tables[1].ID, "busy")
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)

	assert.Equal(t, models.TableStatusOccupied, f.tableStatus(t, f.tables[0].ID))
}

func TestAvailableTablesAndActiveSessions(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.tables[0], "Tanaka", f.cast.ID)
	require.NoError(t, f.db.Model(&f.tables[2]).Update("status", models.TableStatusMaintenance).Error)

	tables, err := f.ledger.AvailableTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "A2", tables[0].TableNumber)

	sessions, err := f.ledger.ActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Tanaka", sessions[0].Customer.Name)
	assert.Equal(t, "A1", sessions[0].Table.TableNumber)
	assert.Equal(t, "Yuki", sessions[0].Cast.Name)
}

func TestCustomersSummary(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, f.tables[0], "Tanaka", 0)
	_, err := f.ledger.Checkout(ctx, f.staffActor(), s.ID)
	require.NoError(t, err)
	f.open(t, f.tables[1], "Tanaka", 0)
	f.open(t, f.tables[2], "Sato", 0)

	rows, err := f.ledger.Customers(ctx, "tana", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tanaka", rows[0].Name)
	assert.EqualValues(t, 2, rows[0].Visits)
	assert.Equal(t, 3000.0, rows[0].TotalSpent)
	require.NotNil(t, rows[0].LastVisit)
}
