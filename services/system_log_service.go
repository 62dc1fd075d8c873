package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
)

// Audit actions written by the controllers.
const (
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionOpenSession   = "open_session"
	ActionAddOrders     = "add_orders"
	ActionChangeCast    = "change_cast"
	ActionMoveTable     = "move_table"
	ActionCheckout      = "checkout"
	ActionRegisterDebt  = "register_debt"
	ActionRecordPayment = "record_payment"
	ActionUpdateSetting = "update_settings"
	ActionMasterData    = "master_data"
	ActionAttendance    = "attendance"
)

type SystemLogFilter struct {
	Action string
	UserID uint
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// LogAction appends an audit row. A failed write is logged and dropped so the
// audited operation, which has already committed, still succeeds.
func (s *SystemLogService) LogAction(ctx context.Context, actor Actor, action, description, ip, userAgent string) {
	entry := models.SystemLog{
		Action:      action,
		Description: description,
		IPAddress:   ip,
		UserAgent:   truncate(userAgent, 255),
	}
	if actor.UserID != 0 {
		id := actor.UserID
		entry.UserID = &id
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"action": action,
			"error":  err,
		}).Error("failed to write system log")
	}
}

// List returns log rows newest first, at most 500 per page.
func (s *SystemLogService) List(ctx context.Context, f SystemLogFilter) ([]models.SystemLog, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.SystemLog{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", dayStart(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", dayStart(f.To).AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storeErr("list system logs", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.SystemLog
	if err := q.Preload("User").Order("created_at desc, id desc").
		Limit(limit).Offset(f.Offset).Find(&logs).Error; err != nil {
		return nil, 0, storeErr("list system logs", err)
	}
	return logs, total, nil
}

func ExportSystemLogsCSV(logs []models.SystemLog) ([]byte, error) {
	buf := bytes.NewBuffer(append([]byte{}, utf8BOM...))
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"ID", "Time", "User", "Action", "Description", "IP Address", "User Agent"})
	for _, l := range logs {
		user := ""
		if l.User != nil {
			user = l.User.Name
		}
		_ = w.Write([]string{
			strconv.FormatUint(uint64(l.ID), 10),
			l.CreatedAt.Format("2006-01-02 15:04:05"),
			user,
			l.Action,
			l.Description,
			l.IPAddress,
			l.UserAgent,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
