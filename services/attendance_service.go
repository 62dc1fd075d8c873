package services

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
)

// attendanceRoles are the roles that clock in and out.
var attendanceRoles = []string{models.RoleStaff, models.RoleCast, models.RoleKitchen}

type AttendanceService struct {
	db  *gorm.DB
	Now func() time.Time
}

func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{db: db, Now: time.Now}
}

// TodayRow is one worker with today's record, if any.
type TodayRow struct {
	UserID    uint       `json:"user_id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CheckIn   *time.Time `json:"check_in"`
	CheckOut  *time.Time `json:"check_out"`
	WorkHours float64    `json:"work_hours"`
}

type MonthlyAttendance struct {
	UserID     uint    `json:"user_id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	WorkDays   int     `json:"work_days"`
	TotalHours float64 `json:"total_hours"`
}

type AttendanceFilter struct {
	From   time.Time
	To     time.Time
	UserID uint
}

// CheckIn opens today's record for userID. Staff may only clock themselves
// in; admins may clock in anyone.
func (s *AttendanceService) CheckIn(ctx context.Context, actor Actor, userID uint) (*models.Attendance, error) {
	if err := s.authorize(actor, userID); err != nil {
		return nil, err
	}

	now := s.Now()
	var rec models.Attendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireWorker(tx, userID); err != nil {
			return err
		}
		err := forUpdate(tx).Where("user_id = ? AND work_date = ?", userID, dayStart(now)).First(&rec).Error
		if err == nil {
			if rec.CheckIn != nil {
				return validationf("already checked in today")
			}
			rec.CheckIn = &now
			return tx.Model(&rec).Update("check_in", now).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		rec = models.Attendance{UserID: userID, WorkDate: dayStart(now), CheckIn: &now}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, storeErr("check in", err)
	}

	utils.InfoLogger.Printf("User %d checked in", userID)
	return &rec, nil
}

// CheckOut closes today's open record for userID.
func (s *AttendanceService) CheckOut(ctx context.Context, actor Actor, userID uint) (*models.Attendance, error) {
	if err := s.authorize(actor, userID); err != nil {
		return nil, err
	}

	now := s.Now()
	var rec models.Attendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := forUpdate(tx).
			Where("user_id = ? AND work_date = ? AND check_in IS NOT NULL AND check_out IS NULL", userID, dayStart(now)).
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationf("no open check-in found for today")
		}
		if err != nil {
			return err
		}
		if now.Before(*rec.CheckIn) {
			now = *rec.CheckIn
		}
		rec.CheckOut = &now
		return tx.Model(&rec).Update("check_out", now).Error
	})
	if err != nil {
		return nil, storeErr("check out", err)
	}

	utils.InfoLogger.Printf("User %d checked out after %.2f hours", userID, rec.WorkHours())
	return &rec, nil
}

// Today lists every worker with today's check-in state.
func (s *AttendanceService) Today(ctx context.Context) ([]TodayRow, error) {
	db := s.db.WithContext(ctx)

	var users []models.User
	if err := db.Where("role IN ? AND active = ?", attendanceRoles, true).
		Order("role, name").Find(&users).Error; err != nil {
		return nil, storeErr("attendance today", err)
	}
	var recs []models.Attendance
	if err := db.Where("work_date = ?", dayStart(s.Now())).Find(&recs).Error; err != nil {
		return nil, storeErr("attendance today", err)
	}
	byUser := make(map[uint]models.Attendance, len(recs))
	for _, r := range recs {
		byUser[r.UserID] = r
	}

	rows := make([]TodayRow, 0, len(users))
	for _, u := range users {
		row := TodayRow{UserID: u.ID, Name: u.Name, Role: u.Role}
		if r, ok := byUser[u.ID]; ok {
			row.CheckIn = r.CheckIn
			row.CheckOut = r.CheckOut
			row.WorkHours = r.WorkHours()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// History returns records between From and To inclusive, newest first.
func (s *AttendanceService) History(ctx context.Context, f AttendanceFilter) ([]models.Attendance, error) {
	q := s.db.WithContext(ctx).Preload("User").
		Where("work_date >= ? AND work_date <= ?", dayStart(f.From), dayStart(f.To))
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	var recs []models.Attendance
	if err := q.Order("work_date desc, user_id asc").Find(&recs).Error; err != nil {
		return nil, storeErr("attendance history", err)
	}
	return recs, nil
}

// MonthlySummary counts work days and hours per worker for the month of t.
func (s *AttendanceService) MonthlySummary(ctx context.Context, t time.Time) ([]MonthlyAttendance, error) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, -1)

	recs, err := s.History(ctx, AttendanceFilter{From: start, To: end})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("role IN ?", attendanceRoles).
		Order("role, name").Find(&users).Error; err != nil {
		return nil, storeErr("attendance summary", err)
	}

	byUser := make(map[uint]*MonthlyAttendance, len(users))
	out := make([]MonthlyAttendance, len(users))
	for i, u := range users {
		out[i] = MonthlyAttendance{UserID: u.ID, Name: u.Name, Role: u.Role}
		byUser[u.ID] = &out[i]
	}
	for _, r := range recs {
		m, ok := byUser[r.UserID]
		if !ok || r.CheckIn == nil {
			continue
		}
		m.WorkDays++
		m.TotalHours += r.WorkHours()
	}
	return out, nil
}

func (s *AttendanceService) authorize(actor Actor, userID uint) error {
	if userID == 0 {
		return validationf("select a user")
	}
	if actor.UserID == 0 {
		return ErrForbidden
	}
	if actor.Role != models.RoleAdmin && actor.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *AttendanceService) requireWorker(tx *gorm.DB, userID uint) error {
	var u models.User
	if err := tx.First(&u, userID).Error; err != nil {
		return err
	}
	for _, r := range attendanceRoles {
		if u.Role == r {
			return nil
		}
	}
	return validationf("%s does not record attendance", u.Name)
}
