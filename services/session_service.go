package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger owns the table/session/order/sale/debt state machine. Every mutation
// runs in one transaction and re-checks its preconditions under row locks.
type Ledger struct {
	db  *gorm.DB
	Now func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, Now: time.Now}
}

type OpenSessionInput struct {
	CustomerName string `form:"customer_name" json:"customer_name"`
	PartySize    int    `form:"party_size" json:"party_size"`
	TableID      uint   `form:"table_id" json:"table_id"`
	CastID       uint   `form:"cast_id" json:"cast_id"` // 0 = no cast yet
}

type OrderLine struct {
	MenuItemID uint `form:"menu_item_id" json:"menu_item_id"`
	Quantity   int  `form:"quantity" json:"quantity"`
}

// CheckoutSummary is what the checkout screen shows before confirming.
type CheckoutSummary struct {
	Session models.Session `json:"session"`
	Orders  []models.Order `json:"orders"`
	Bill    Bill           `json:"bill"`
}

type CheckoutResult struct {
	Session models.Session `json:"session"`
	Sale    models.Sale    `json:"sale"`
	Bill    Bill           `json:"bill"`
}

// OpenSession seats a party at an available table.
func (l *Ledger) OpenSession(ctx context.Context, actor Actor, in OpenSessionInput) (*models.Session, error) {
	session, err := l.openSession(ctx, actor, in)
	observe("open_session", err)
	return session, err
}

func (l *Ledger) openSession(ctx context.Context, actor Actor, in OpenSessionInput) (*models.Session, error) {
	if err := actor.require(models.RoleStaff); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.CustomerName)
	if name == "" || in.PartySize < 1 || in.TableID == 0 {
		return nil, validationf("customer name, party size and table are required")
	}

	var session models.Session
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := lockTable(tx, in.TableID)
		if err != nil {
			return err
		}
		if table.Status != models.TableStatusAvailable {
			return conflictf("table %s is not available", table.TableNumber)
		}
		if in.PartySize > table.Capacity {
			return validationf("table %s seats %d, party of %d is too large", table.TableNumber, table.Capacity, in.PartySize)
		}
		if err := ensureTableFree(tx, table); err != nil {
			return err
		}

		var castID *uint
		if in.CastID != 0 {
			if err := ensureCastFree(tx, in.CastID, 0); err != nil {
				return err
			}
			id := in.CastID
			castID = &id
		}

		customer, err := firstOrCreateCustomer(tx, name)
		if err != nil {
			return err
		}

		session = models.Session{
			CustomerID: customer.ID,
			TableID:    table.ID,
			CastID:     castID,
			StaffID:    actor.UserID,
			PartySize:  in.PartySize,
			StartTime:  l.Now(),
			Status:     models.SessionStatusActive,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		return occupyTable(tx, table)
	})
	if err != nil {
		return nil, storeErr("open session", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"table_id":   session.TableID,
		"staff_id":   actor.UserID,
	}).Info("session opened")
	return &session, nil
}

// AddOrders records order lines against an active session, snapshotting the
// current menu price into each row.
func (l *Ledger) AddOrders(ctx context.Context, actor Actor, sessionID uint, lines []OrderLine) ([]models.Order, error) {
	orders, err := l.addOrders(ctx, actor, lines, func(tx *gorm.DB) (*models.Session, error) {
		return lockActiveSession(tx, sessionID)
	})
	observe("add_orders", err)
	return orders, err
}

// AddOrdersForTable is AddOrders keyed by the table the staff member picked.
func (l *Ledger) AddOrdersForTable(ctx context.Context, actor Actor, tableID uint, lines []OrderLine) ([]models.Order, error) {
	if tableID == 0 {
		return nil, validationf("select a table")
	}
	orders, err := l.addOrders(ctx, actor, lines, func(tx *gorm.DB) (*models.Session, error) {
		var session models.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("table_id = ? AND status = ?", tableID, models.SessionStatusActive).
			First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("no active session at this table")
		}
		return &session, err
	})
	observe("add_orders", err)
	return orders, err
}

func (l *Ledger) addOrders(ctx context.Context, actor Actor, lines []OrderLine, resolve func(*gorm.DB) (*models.Session, error)) ([]models.Order, error) {
	if err := actor.require(models.RoleStaff); err != nil {
		return nil, err
	}
	wanted := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 0 {
			return nil, validationf("quantity cannot be negative")
		}
		if line.Quantity > 0 {
			wanted = append(wanted, line)
		}
	}
	if len(wanted) == 0 {
		return nil, validationf("select at least one item")
	}

	var orders []models.Order
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := resolve(tx)
		if err != nil {
			return err
		}

		for _, line := range wanted {
			var item models.MenuItem
			if err := tx.First(&item, line.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationf("menu item %d does not exist", line.MenuItemID)
				}
				return err
			}
			if !item.IsAvailable {
				return validationf("%s is not available", item.Name)
			}
			order := models.Order{
				SessionID:  session.ID,
				MenuItemID: item.ID,
				Quantity:   line.Quantity,
				UnitPrice:  item.Price,
				TotalPrice: item.Price * float64(line.Quantity),
				Status:     models.OrderStatusPending,
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			order.MenuItem = &item
			orders = append(orders, order)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("add orders", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": orders[0].SessionID,
		"lines":      len(orders),
	}).Info("orders added")
	return orders, nil
}

// ChangeCast reassigns the cast serving an active session.
func (l *Ledger) ChangeCast(ctx context.Context, actor Actor, sessionID, castID uint) (*models.Session, error) {
	session, err := l.changeCast(ctx, actor, sessionID, castID)
	observe("change_cast", err)
	return session, err
}

func (l *Ledger) changeCast(ctx context.Context, actor Actor, sessionID, castID uint) (*models.Session, error) {
	if err := actor.require(models.RoleStaff); err != nil {
		return nil, err
	}
	if sessionID == 0 || castID == 0 {
		return nil, validationf("select a session and a cast")
	}

	var session *models.Session
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = lockActiveSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.CastID != nil && *session.CastID == castID {
			return nil
		}
		if err := ensureCastFree(tx, castID, session.ID); err != nil {
			return err
		}
		if err := tx.Model(session).Update("cast_id", castID).Error; err != nil {
			return err
		}
		session.CastID = &castID
		return nil
	})
	if err != nil {
		return nil, storeErr("change cast", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"cast_id":    castID,
	}).Info("cast changed")
	return session, nil
}

// MoveTable moves an active session to another available table.
func (l *Ledger) MoveTable(ctx context.Context, actor Actor, sessionID, tableID uint, reason string) (*models.Session, error) {
	session, err := l.moveTable(ctx, actor, sessionID, tableID, reason)
	observe("move_table", err)
	return session, err
}

func (l *Ledger) moveTable(ctx context.Context, actor Actor, sessionID, tableID uint, reason string) (*models.Session, error) {
	if err := actor.require(models.RoleStaff); err != nil {
		return nil, err
	}
	if sessionID == 0 || tableID == 0 || strings.TrimSpace(reason) == "" {
		return nil, validationf("session, destination table and reason are required")
	}

	var session *models.Session
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = lockActiveSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.TableID == tableID {
			return validationf("the session is already at this table")
		}

		// Lock both tables in id order so two opposite moves cannot deadlock.
		ids := []uint{session.TableID, tableID}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		locked := make(map[uint]*models.Table, 2)
		for _, id := range ids {
			t, err := lockTable(tx, id)
			if err != nil {
				return err
			}
			locked[id] = t
		}

		dest := locked[tableID]
		if dest.Status != models.TableStatusAvailable {
			return conflictf("table %s is no longer available", dest.TableNumber)
		}
		if session.PartySize > dest.Capacity {
			return validationf("table %s seats %d, party of %d is too large", dest.TableNumber, dest.Capacity, session.PartySize)
		}
		if err := ensureTableFree(tx, dest); err != nil {
			return err
		}
		if err := occupyTable(tx, dest); err != nil {
			return err
		}
		if err := releaseTable(tx, session.TableID); err != nil {
			return err
		}
		if err := tx.Model(session).Update("table_id", tableID).Error; err != nil {
			return err
		}
		session.TableID = tableID
		return nil
	})
	if err != nil {
		return nil, storeErr("move table", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"table_id":   tableID,
		"reason":     reason,
	}).Info("table moved")
	return session, nil
}

// PreviewCheckout prices an active session without writing anything.
func (l *Ledger) PreviewCheckout(ctx context.Context, sessionID uint) (*CheckoutSummary, error) {
	db := l.db.WithContext(ctx)

	var session models.Session
	if err := db.Preload("Customer").Preload("Table").Preload("Cast").
		First(&session, sessionID).Error; err != nil {
		return nil, storeErr("preview checkout", err)
	}
	if !session.IsActive() {
		return nil, conflictf("session %d is already completed", session.ID)
	}

	var orders []models.Order
	if err := db.Preload("MenuItem").Where("session_id = ?", session.ID).
		Order("created_at asc").Find(&orders).Error; err != nil {
		return nil, storeErr("preview checkout", err)
	}
	settings, err := loadSettings(db)
	if err != nil {
		return nil, err
	}

	return &CheckoutSummary{
		Session: session,
		Orders:  orders,
		Bill:    ComputeBill(session, orders, settings, l.Now()),
	}, nil
}

// Checkout completes a session: stamps its total, frees the table and writes
// the Sale row. It is the only place a Sale is created.
func (l *Ledger) Checkout(ctx context.Context, actor Actor, sessionID uint) (*CheckoutResult, error) {
	result, err := l.checkout(ctx, actor, sessionID)
	observe("checkout", err)
	return result, err
}

func (l *Ledger) checkout(ctx context.Context, actor Actor, sessionID uint) (*CheckoutResult, error) {
	if err := actor.require(models.RoleStaff); err != nil {
		return nil, err
	}

	var result CheckoutResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := lockActiveSession(tx, sessionID)
		if err != nil {
			return err
		}

		var orders []models.Order
		if err := tx.Where("session_id = ?", session.ID).Find(&orders).Error; err != nil {
			return err
		}
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}

		now := l.Now()
		if now.Before(session.StartTime) {
			now = session.StartTime
		}
		bill := ComputeBill(*session, orders, settings, now)

		res := tx.Model(&models.Session{}).
			Where("id = ? AND status = ?", session.ID, models.SessionStatusActive).
			Updates(map[string]interface{}{
				"status":       models.SessionStatusCompleted,
				"end_time":     now,
				"total_amount": bill.Total,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return conflictf("session %d is already completed", session.ID)
		}
		if err := releaseTable(tx, session.TableID); err != nil {
			return err
		}

		sale := models.Sale{
			SessionID:   session.ID,
			CastID:      session.CastID,
			StaffID:     session.StaffID,
			TotalAmount: bill.Total,
			SaleDate:    dayStart(now),
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		total := bill.Total
		session.Status = models.SessionStatusCompleted
		session.EndTime = &now
		session.TotalAmount = &total
		result = CheckoutResult{Session: *session, Sale: sale, Bill: bill}
		return nil
	})
	if err != nil {
		return nil, storeErr("checkout", err)
	}

	checkoutsTotal.Inc()
	checkoutRevenue.Add(result.Bill.Total)
	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": result.Session.ID,
		"total":      result.Bill.Total,
	}).Info("session checked out")
	return &result, nil
}

// ActiveSessions lists open sessions with their customer, table and cast.
func (l *Ledger) ActiveSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	err := l.db.WithContext(ctx).
		Preload("Customer").Preload("Table").Preload("Cast").
		Where("status = ?", models.SessionStatusActive).
		Order("start_time asc").
		Find(&sessions).Error
	if err != nil {
		return nil, storeErr("list active sessions", err)
	}
	return sessions, nil
}

// FreeCasts lists active casts not serving any table. The list is advisory;
// assignment re-checks inside its own transaction.
func (l *Ledger) FreeCasts(ctx context.Context) ([]models.User, error) {
	var casts []models.User
	busy := l.db.Model(&models.Session{}).Select("cast_id").
		Where("status = ? AND cast_id IS NOT NULL", models.SessionStatusActive)
	err := l.db.WithContext(ctx).
		Where("role = ? AND active = ?", models.RoleCast, true).
		Where("id NOT IN (?)", busy).
		Order("name asc").
		Find(&casts).Error
	if err != nil {
		return nil, storeErr("list free casts", err)
	}
	return casts, nil
}

// AvailableTables lists tables a party can be seated at right now.
func (l *Ledger) AvailableTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := l.db.WithContext(ctx).
		Where("status = ?", models.TableStatusAvailable).
		Order("table_number asc").
		Find(&tables).Error
	if err != nil {
		return nil, storeErr("list available tables", err)
	}
	return tables, nil
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func lockTable(tx *gorm.DB, id uint) (*models.Table, error) {
	var table models.Table
	if err := forUpdate(tx).First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("table %d does not exist", id)
		}
		return nil, err
	}
	return &table, nil
}

func lockActiveSession(tx *gorm.DB, id uint) (*models.Session, error) {
	var session models.Session
	if err := forUpdate(tx).First(&session, id).Error; err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, conflictf("session %d is already completed", session.ID)
	}
	return &session, nil
}

func ensureTableFree(tx *gorm.DB, table *models.Table) error {
	var n int64
	if err := tx.Model(&models.Session{}).
		Where("table_id = ? AND status = ?", table.ID, models.SessionStatusActive).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return conflictf("table %s already has an active session", table.TableNumber)
	}
	return nil
}

// ensureCastFree locks the cast's user row so two terminals assigning the same
// cast serialize here, then checks no other active session holds them.
func ensureCastFree(tx *gorm.DB, castID, exceptSessionID uint) error {
	var cast models.User
	err := forUpdate(tx).Where("id = ? AND role = ?", castID, models.RoleCast).First(&cast).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return validationf("cast %d does not exist", castID)
	}
	if err != nil {
		return err
	}
	if !cast.Active {
		return validationf("%s is not active", cast.Name)
	}

	var other models.Session
	err = tx.Preload("Table").
		Where("cast_id = ? AND status = ? AND id <> ?", castID, models.SessionStatusActive, exceptSessionID).
		First(&other).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.Table != nil {
		return conflictf("%s is already serving table %s", cast.Name, other.Table.TableNumber)
	}
	return conflictf("%s is already serving another table", cast.Name)
}

func occupyTable(tx *gorm.DB, table *models.Table) error {
	res := tx.Model(&models.Table{}).
		Where("id = ? AND status = ?", table.ID, models.TableStatusAvailable).
		Update("status", models.TableStatusOccupied)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return conflictf("table %s is no longer available", table.TableNumber)
	}
	return nil
}

func releaseTable(tx *gorm.DB, tableID uint) error {
	return tx.Model(&models.Table{}).Where("id = ?", tableID).
		Update("status", models.TableStatusAvailable).Error
}

func firstOrCreateCustomer(tx *gorm.DB, name string) (*models.Customer, error) {
	var customer models.Customer
	if err := tx.Where(models.Customer{Name: name}).FirstOrCreate(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
