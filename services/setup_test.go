package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/club-pos/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ctx   = context.Background()
	admin = Actor{UserID: 1, Role: models.RoleAdmin}
	// 2026-03-10 20:00 local; a Tuesday evening.
	openedAt = time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)
)

// newTestDB opens a private in-memory database for one test. A single
// connection keeps every statement on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	db     *gorm.DB
	ledger *Ledger
	staff  models.User
	cast   models.User
	cast2  models.User
	tables []models.Table
	menu   map[string]models.MenuItem
	now    time.Time
}

// staffActor is the floor staff member seeded by newFixture.
func (f *fixture) staffActor() Actor {
	return Actor{UserID: f.staff.ID, Role: models.RoleStaff}
}

// advance moves the ledger clock forward.
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db, now: openedAt, menu: map[string]models.MenuItem{}}
	f.ledger = NewLedger(db)
	f.ledger.Now = func() time.Time { return f.now }

	users := []*models.User{
		{Username: "owner", Name: "Owner", Role: models.RoleAdmin, Active: true, PasswordHash: "x"},
		{Username: "kenji", Name: "Kenji", Role: models.RoleStaff, Active: true, PasswordHash: "x"},
		{Username: "yuki", Name: "Yuki", Role: models.RoleCast, Active: true, PasswordHash: "x"},
		{Username: "mei", Name: "Mei", Role: models.RoleCast, Active: true, PasswordHash: "x"},
	}
	for _, u := range users {
		require.NoError(t, db.Create(u).Error)
	}
	f.staff, f.cast, f.cast2 = *users[1], *users[2], *users[3]

	for _, tb := range []models.Table{
		{TableNumber: "A1", Capacity: 4, Status: models.TableStatusAvailable},
		{TableNumber: "A2", Capacity: 4, Status: models.TableStatusAvailable},
		{TableNumber: "B1", Capacity: 2, Status: models.TableStatusAvailable},
	} {
		tb := tb
		require.NoError(t, db.Create(&tb).Error)
		f.tables = append(f.tables, tb)
	}

	for _, m := range []models.MenuItem{
		{Name: "Highball", Category: models.MenuCategoryDrink, Price: 800, IsAvailable: true},
		{Name: "Karaage", Category: models.MenuCategoryFood, Price: 1200, IsAvailable: true},
		{Name: "Champagne", Category: models.MenuCategoryBottle, Price: 30000, IsAvailable: true},
		{Name: "Old Wine", Category: models.MenuCategoryBottle, Price: 9000, IsAvailable: false},
	} {
		m := m
		require.NoError(t, db.Create(&m).Error)
		f.menu[m.Name] = m
	}
	return f
}

func (f *fixture) open(t *testing.T, table models.Table, customer string, castID uint) *models.Session {
	t.Helper()
	s, err := f.ledger.OpenSession(ctx, f.staffActor(), OpenSessionInput{
		CustomerName: customer,
		PartySize:    2,
		TableID:      table.ID,
		CastID:       castID,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) tableStatus(t *testing.T, id uint) string {
	t.Helper()
	var tb models.Table
	require.NoError(t, f.db.First(&tb, id).Error)
	return tb.Status
}
