package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yeremiapane/club-pos/models"
)

// eveningFixture checks out two parties on the openedAt evening and leaves a
// third seated.
func eveningFixture(t *testing.T) (*fixture, *ReportService) {
	f := newFixture(t)
	_, err := NewSettingsService(f.db).Update(ctx, admin, map[string]string{
		KeyCastCommissionRate:  "30",
		KeyStaffCommissionRate: "10",
	})
	require.NoError(t, err)

	tanaka := f.open(t, f.tables[0], "Tanaka", f.cast.ID)
	_, err = f.ledger.AddOrders(ctx, f.staffActor(), tanaka.ID, []OrderLine{{MenuItemID: f.menu["Highball"].ID, Quantity: 2}})
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	sato := f.open(t, f.tables[1], "Sato", 0)
	_, err = f.ledger.AddOrders(ctx, f.staffActor(), sato.ID, []OrderLine{{MenuItemID: f.menu["Champagne"].ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = f.ledger.Checkout(ctx, f.staffActor(), tanaka.ID) // 1600 + 3000 + 1000
	require.NoError(t, err)
	_, err = f.ledger.Checkout(ctx, f.staffActor(), sato.ID) // 30000 + 3000
	require.NoError(t, err)

	f.open(t, f.tables[2], "Suzuki", f.cast2.ID)

	reports := NewReportService(f.db)
	reports.Now = func() time.Time { return f.now }
	return f, reports
}

func TestBuildReport(t *testing.T) {
	_, reports := eveningFixture(t)

	rep, err := reports.Build(ctx, DateRange{From: openedAt, To: openedAt})
	require.NoError(t, err)

	s := rep.Summary
	assert.Equal(t, 38600.0, s.TotalRevenue)
	assert.EqualValues(t, 2, s.TotalSessions)
	assert.Equal(t, 19300.0, s.AverageSpend)
	assert.EqualValues(t, 2, s.UniqueCustomers)
	assert.Equal(t, 11580.0, s.Commission.CastShare)
	assert.Equal(t, 3860.0, s.Commission.StaffShare)

	require.Len(t, rep.Menu, 2)
	assert.Equal(t, "Champagne", rep.Menu[0].Name)
	assert.Equal(t, "Highball", rep.Menu[1].Name)
	assert.EqualValues(t, 2, rep.Menu[1].Quantity)
	assert.Equal(t, 1600.0, rep.Menu[1].Revenue)

	require.Len(t, rep.Casts, 1, "the cast-less sale is not ranked")
	assert.Equal(t, "Yuki", rep.Casts[0].Name)
	assert.Equal(t, 5600.0, rep.Casts[0].Revenue)
	assert.Equal(t, 1680.0, rep.Casts[0].Commission)

	require.Len(t, rep.Staff, 1)
	assert.Equal(t, "Kenji", rep.Staff[0].Name)
	assert.EqualValues(t, 2, rep.Staff[0].Sessions)
	assert.Equal(t, 3860.0, rep.Staff[0].Commission)

	require.Len(t, rep.Daily, 1)
	assert.Equal(t, 38600.0, rep.Daily[0].Revenue)

	require.Len(t, rep.Tables, 3)
	assert.Equal(t, "A1", rep.Tables[0].TableNumber)
	assert.Equal(t, 5600.0, rep.Tables[0].Revenue)
	assert.Equal(t, 33000.0, rep.Tables[1].Revenue)
	assert.Zero(t, rep.Tables[2].Sessions, "the seated party is not counted yet")
}

func TestBuildReportEmptyRange(t *testing.T) {
	_, reports := eveningFixture(t)
	day := openedAt.AddDate(0, 0, 1)

	rep, err := reports.Build(ctx, DateRange{From: day, To: day})
	require.NoError(t, err)
	assert.Zero(t, rep.Summary.TotalRevenue)
	assert.Zero(t, rep.Summary.AverageSpend)
	assert.Empty(t, rep.Daily)
}

func TestBuildReportRejectsBadRange(t *testing.T) {
	reports := NewReportService(newTestDB(t))
	var ve *ValidationError

	_, err := reports.Build(ctx, DateRange{From: openedAt, To: openedAt.AddDate(0, 0, -1)})
	assert.ErrorAs(t, err, &ve)
	_, err = reports.Sessions(ctx, DateRange{})
	assert.ErrorAs(t, err, &ve)
}

func TestCastDashboard(t *testing.T) {
	f, reports := eveningFixture(t)
	yuki := Actor{UserID: f.cast.ID, Role: models.RoleCast}

	d, err := reports.CastDashboard(ctx, yuki, f.cast.ID)
	require.NoError(t, err)
	assert.Equal(t, 5600.0, d.TodaySales)
	assert.EqualValues(t, 1, d.TodayCustomers)
	assert.Equal(t, 5600.0, d.MonthSales)
	assert.Equal(t, 1680.0, d.MonthCommission)
	require.Len(t, d.RecentSales, 1)
	assert.Equal(t, "Tanaka", d.RecentSales[0].CustomerName)

	_, err = reports.CastDashboard(ctx, Actor{UserID: f.cast2.ID, Role: models.RoleCast}, f.cast.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = reports.CastDashboard(ctx, admin, f.cast.ID)
	assert.NoError(t, err)
}

func TestAdminDashboard(t *testing.T) {
	f, reports := eveningFixture(t)
	_, err := f.ledger.RegisterDebt(ctx, admin, RegisterDebtInput{CustomerName: "Tanaka", Amount: 7000})
	require.NoError(t, err)

	d, err := reports.AdminDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 38600.0, d.TodayRevenue)
	assert.EqualValues(t, 2, d.TodaySessions)
	assert.EqualValues(t, 1, d.ActiveSessions)
	assert.EqualValues(t, 1, d.Tables[models.TableStatusOccupied])
	assert.EqualValues(t, 2, d.Tables[models.TableStatusAvailable])
	assert.Zero(t, d.Tables[models.TableStatusMaintenance])
	assert.Equal(t, 7000.0, d.OutstandingDebt)
}

func TestExports(t *testing.T) {
	f, reports := eveningFixture(t)
	r := DateRange{From: openedAt, To: openedAt}

	rows, err := reports.Sessions(ctx, r)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Suzuki", rows[0].CustomerName, "newest first")
	assert.Nil(t, rows[0].TotalAmount)

	csvData, err := ExportSessionsCSV(rows)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(csvData, utf8BOM))
	assert.Contains(t, string(csvData), "Session ID,Customer,Cast")
	assert.Contains(t, string(csvData), "Tanaka,Yuki,A1")

	rep, err := reports.Build(ctx, r)
	require.NoError(t, err)
	xlsx, err := ExportReportXLSX(rep, rows)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(xlsx))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{"Summary", "Daily", "Menu", "Casts", "Staff", "Tables", "Sessions"}, book.GetSheetList())
	sessions, err := book.GetRows("Sessions")
	require.NoError(t, err)
	assert.Len(t, sessions, 4, "header plus three sessions")

	preview, err := f.ledger.PreviewCheckout(ctx, f.openSessionAt(t, f.tables[2]))
	require.NoError(t, err)
	pdf, err := ReceiptPDF("Club Luna", preview)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

// openSessionAt returns the id of the active session seated at table.
func (f *fixture) openSessionAt(t *testing.T, table models.Table) uint {
	t.Helper()
	var s models.Session
	require.NoError(t, f.db.Where("table_id = ? AND status = ?", table.ID, models.SessionStatusActive).First(&s).Error)
	return s.ID
}
