package services

import (
	"context"
	"sort"
	"time"

	"github.com/yeremiapane/club-pos/models"
	"gorm.io/gorm"
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r DateRange) start() time.Time { return dayStart(r.From) }
func (r DateRange) end() time.Time   { return dayStart(r.To).AddDate(0, 0, 1) }

func (r DateRange) validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return validationf("a date range is required")
	}
	if dayStart(r.From).After(dayStart(r.To)) {
		return validationf("start date must not be after end date")
	}
	return nil
}

type SalesSummary struct {
	TotalRevenue    float64    `json:"total_revenue"`
	TotalSessions   int64      `json:"total_sessions"`
	AverageSpend    float64    `json:"average_spend"`
	UniqueCustomers int64      `json:"unique_customers"`
	Commission      Commission `json:"commission"`
}

type MenuRank struct {
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Quantity   int64   `json:"quantity"`
	Revenue    float64 `json:"revenue"`
}

type PersonRank struct {
	UserID     uint    `json:"user_id"`
	Name       string  `json:"name"`
	Sessions   int64   `json:"sessions"`
	Revenue    float64 `json:"revenue"`
	Commission float64 `json:"commission"`
}

type DailySales struct {
	Date     time.Time `json:"date"`
	Sessions int64     `json:"sessions"`
	Revenue  float64   `json:"revenue"`
}

type TableUsage struct {
	TableID     uint    `json:"table_id"`
	TableNumber string  `json:"table_number"`
	Sessions    int64   `json:"sessions"`
	Revenue     float64 `json:"revenue"`
}

// SessionRow is one line of the exported session listing.
type SessionRow struct {
	SessionID    uint       `json:"session_id"`
	CustomerName string     `json:"customer_name"`
	CastName     string     `json:"cast_name"`
	TableNumber  string     `json:"table_number"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	TotalAmount  *float64   `json:"total_amount"`
	Status       string     `json:"status"`
}

type Report struct {
	Range    DateRange    `json:"range"`
	Summary  SalesSummary `json:"summary"`
	Menu     []MenuRank   `json:"menu"`
	Casts    []PersonRank `json:"casts"`
	Staff    []PersonRank `json:"staff"`
	Daily    []DailySales `json:"daily"`
	Tables   []TableUsage `json:"tables"`
	Settings Settings     `json:"-"`
}

type CastDashboard struct {
	CastID          uint         `json:"cast_id"`
	TodaySales      float64      `json:"today_sales"`
	TodayCustomers  int64        `json:"today_customers"`
	MonthSales      float64      `json:"month_sales"`
	MonthCustomers  int64        `json:"month_customers"`
	MonthWorkDays   int64        `json:"month_work_days"`
	MonthCommission float64      `json:"month_commission"`
	RecentSales     []RecentSale `json:"recent_sales"`
}

type RecentSale struct {
	SaleID       uint      `json:"sale_id"`
	CustomerName string    `json:"customer_name"`
	TableNumber  string    `json:"table_number"`
	TotalAmount  float64   `json:"total_amount"`
	SaleDate     time.Time `json:"sale_date"`
}

type ReportService struct {
	db  *gorm.DB
	Now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, Now: time.Now}
}

// Build assembles every section of the sales report for r.
func (s *ReportService) Build(ctx context.Context, r DateRange) (*Report, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	settings, err := loadSettings(db)
	if err != nil {
		return nil, err
	}

	rep := &Report{Range: r, Settings: settings}
	if rep.Summary, err = s.summary(db, r, settings); err != nil {
		return nil, err
	}
	if rep.Menu, err = s.menuRanking(db, r); err != nil {
		return nil, err
	}
	if rep.Casts, err = s.personRanking(db, r, "cast_id", settings.CastCommissionRate); err != nil {
		return nil, err
	}
	if rep.Staff, err = s.personRanking(db, r, "staff_id", settings.StaffCommissionRate); err != nil {
		return nil, err
	}
	if rep.Daily, err = s.daily(db, r); err != nil {
		return nil, err
	}
	if rep.Tables, err = s.tableUsage(db, r); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *ReportService) summary(db *gorm.DB, r DateRange, settings Settings) (SalesSummary, error) {
	var out SalesSummary
	err := db.Model(&models.Sale{}).
		Select("COALESCE(SUM(total_amount), 0), COUNT(*)").
		Where("sale_date >= ? AND sale_date < ?", r.start(), r.end()).
		Row().Scan(&out.TotalRevenue, &out.TotalSessions)
	if err != nil {
		return out, storeErr("sales summary", err)
	}
	err = db.Table("sales").
		Joins("JOIN sessions ON sessions.id = sales.session_id").
		Where("sales.sale_date >= ? AND sales.sale_date < ?", r.start(), r.end()).
		Distinct("sessions.customer_id").
		Count(&out.UniqueCustomers).Error
	if err != nil {
		return out, storeErr("sales summary", err)
	}
	if out.TotalSessions > 0 {
		out.AverageSpend = roundYen(out.TotalRevenue / float64(out.TotalSessions))
	}
	out.Commission = SplitCommission(out.TotalRevenue, settings.CastCommissionRate, settings.StaffCommissionRate)
	return out, nil
}

func (s *ReportService) menuRanking(db *gorm.DB, r DateRange) ([]MenuRank, error) {
	var rows []MenuRank
	err := db.Table("orders o").
		Select("m.id AS menu_item_id, m.name, m.category, SUM(o.quantity) AS quantity, SUM(o.total_price) AS revenue").
		Joins("JOIN menu_items m ON o.menu_item_id = m.id").
		Joins("JOIN sessions s ON o.session_id = s.id").
		Where("s.start_time >= ? AND s.start_time < ?", r.start(), r.end()).
		Group("m.id, m.name, m.category").
		Order("revenue desc").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("menu ranking", err)
	}
	return rows, nil
}

// personRanking groups sales by column (cast_id or staff_id) and applies rate
// as that person's commission share.
func (s *ReportService) personRanking(db *gorm.DB, r DateRange, column string, rate float64) ([]PersonRank, error) {
	var rows []PersonRank
	err := db.Table("sales").
		Select("users.id AS user_id, users.name, COUNT(sales.id) AS sessions, COALESCE(SUM(sales.total_amount), 0) AS revenue").
		Joins("JOIN users ON users.id = sales."+column).
		Where("sales.sale_date >= ? AND sales.sale_date < ?", r.start(), r.end()).
		Group("users.id, users.name").
		Order("revenue desc").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("ranking by "+column, err)
	}
	for i := range rows {
		rows[i].Commission = roundYen(rows[i].Revenue * rate / 100)
	}
	return rows, nil
}

func (s *ReportService) daily(db *gorm.DB, r DateRange) ([]DailySales, error) {
	var sales []models.Sale
	if err := db.Where("sale_date >= ? AND sale_date < ?", r.start(), r.end()).
		Find(&sales).Error; err != nil {
		return nil, storeErr("daily sales", err)
	}

	byDay := map[string]*DailySales{}
	for _, sale := range sales {
		key := sale.SaleDate.Format("2006-01-02")
		d, ok := byDay[key]
		if !ok {
			d = &DailySales{Date: dayStart(sale.SaleDate)}
			byDay[key] = d
		}
		d.Sessions++
		d.Revenue += sale.TotalAmount
	}
	out := make([]DailySales, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *ReportService) tableUsage(db *gorm.DB, r DateRange) ([]TableUsage, error) {
	var rows []TableUsage
	err := db.Table("tables t").
		Select("t.id AS table_id, t.table_number, COUNT(s.id) AS sessions, COALESCE(SUM(s.total_amount), 0) AS revenue").
		Joins("LEFT JOIN sessions s ON s.table_id = t.id AND s.status = ? AND s.start_time >= ? AND s.start_time < ?",
			models.SessionStatusCompleted, r.start(), r.end()).
		Group("t.id, t.table_number").
		Order("t.table_number asc").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("table usage", err)
	}
	return rows, nil
}

// Sessions lists every session started in r for export.
func (s *ReportService) Sessions(ctx context.Context, r DateRange) ([]SessionRow, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	var rows []SessionRow
	err := s.db.WithContext(ctx).Table("sessions s").
		Select(`s.id AS session_id, c.name AS customer_name, u.name AS cast_name, t.table_number,
			s.start_time, s.end_time, s.total_amount, s.status`).
		Joins("LEFT JOIN customers c ON s.customer_id = c.id").
		Joins("LEFT JOIN users u ON s.cast_id = u.id").
		Joins("LEFT JOIN tables t ON s.table_id = t.id").
		Where("s.start_time >= ? AND s.start_time < ?", r.start(), r.end()).
		Order("s.start_time desc, s.id desc").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("session export", err)
	}
	return rows, nil
}

// CastDashboard is the cast's own view of today and this month.
func (s *ReportService) CastDashboard(ctx context.Context, actor Actor, castID uint) (*CastDashboard, error) {
	if actor.UserID == 0 || (actor.Role != models.RoleAdmin && actor.UserID != castID) {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)
	settings, err := loadSettings(db)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	today := DateRange{From: now, To: now}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	month := DateRange{From: monthStart, To: monthStart.AddDate(0, 1, -1)}

	out := &CastDashboard{CastID: castID, RecentSales: []RecentSale{}}
	sum := func(r DateRange, total *float64, count *int64) error {
		return db.Model(&models.Sale{}).
			Select("COALESCE(SUM(total_amount), 0), COUNT(*)").
			Where("cast_id = ? AND sale_date >= ? AND sale_date < ?", castID, r.start(), r.end()).
			Row().Scan(total, count)
	}
	if err := sum(today, &out.TodaySales, &out.TodayCustomers); err != nil {
		return nil, storeErr("cast dashboard", err)
	}
	if err := sum(month, &out.MonthSales, &out.MonthCustomers); err != nil {
		return nil, storeErr("cast dashboard", err)
	}
	if err := db.Model(&models.Attendance{}).
		Where("user_id = ? AND work_date >= ? AND work_date < ? AND check_in IS NOT NULL", castID, month.start(), month.end()).
		Count(&out.MonthWorkDays).Error; err != nil {
		return nil, storeErr("cast dashboard", err)
	}
	out.MonthCommission = roundYen(out.MonthSales * settings.CastCommissionRate / 100)

	err = db.Table("sales").
		Select("sales.id AS sale_id, c.name AS customer_name, t.table_number, sales.total_amount, sales.sale_date").
		Joins("JOIN sessions s ON sales.session_id = s.id").
		Joins("JOIN customers c ON s.customer_id = c.id").
		Joins("JOIN tables t ON s.table_id = t.id").
		Where("sales.cast_id = ?", castID).
		Order("sales.id desc").
		Limit(10).
		Scan(&out.RecentSales).Error
	if err != nil {
		return nil, storeErr("cast dashboard", err)
	}
	return out, nil
}

// AdminDashboard is the floor overview shown on the admin home screen.
type AdminDashboard struct {
	TodayRevenue    float64          `json:"today_revenue"`
	TodaySessions   int64            `json:"today_sessions"`
	ActiveSessions  int64            `json:"active_sessions"`
	Tables          map[string]int64 `json:"tables"`
	OutstandingDebt float64          `json:"outstanding_debt"`
	CheckedIn       int64            `json:"checked_in"`
}

func (s *ReportService) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	db := s.db.WithContext(ctx)
	now := s.Now()
	today := DateRange{From: now, To: now}

	out := &AdminDashboard{Tables: map[string]int64{
		models.TableStatusAvailable:   0,
		models.TableStatusOccupied:    0,
		models.TableStatusReserved:    0,
		models.TableStatusMaintenance: 0,
	}}
	if err := db.Model(&models.Sale{}).
		Select("COALESCE(SUM(total_amount), 0), COUNT(*)").
		Where("sale_date >= ? AND sale_date < ?", today.start(), today.end()).
		Row().Scan(&out.TodayRevenue, &out.TodaySessions); err != nil {
		return nil, storeErr("admin dashboard", err)
	}
	if err := db.Model(&models.Session{}).Where("status = ?", models.SessionStatusActive).
		Count(&out.ActiveSessions).Error; err != nil {
		return nil, storeErr("admin dashboard", err)
	}

	var counts []struct {
		Status string
		N      int64
	}
	if err := db.Model(&models.Table{}).Select("status, COUNT(*) AS n").
		Group("status").Scan(&counts).Error; err != nil {
		return nil, storeErr("admin dashboard", err)
	}
	for _, c := range counts {
		out.Tables[c.Status] = c.N
	}

	if err := db.Model(&models.Debt{}).Select("COALESCE(SUM(remaining_amount), 0)").
		Row().Scan(&out.OutstandingDebt); err != nil {
		return nil, storeErr("admin dashboard", err)
	}
	if err := db.Model(&models.Attendance{}).
		Where("work_date = ? AND check_in IS NOT NULL AND check_out IS NULL", dayStart(now)).
		Count(&out.CheckedIn).Error; err != nil {
		return nil, storeErr("admin dashboard", err)
	}
	return out, nil
}
