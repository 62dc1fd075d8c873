package services

import (
	"context"
	"strings"
	"time"
)

// CustomerSummary is a customer's visit and tab history.
type CustomerSummary struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Visits          int64      `json:"visits"`
	TotalSpent      float64    `json:"total_spent"`
	LastVisit       *time.Time `json:"last_visit"`
	OutstandingDebt float64    `json:"outstanding_debt"`
}

// Customers finds customers whose name contains query, most recent first.
func (l *Ledger) Customers(ctx context.Context, query string, limit int) ([]CustomerSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := l.db.WithContext(ctx).Table("customers c").
		Select(`c.id, c.name,
			(SELECT COUNT(*) FROM sessions s WHERE s.customer_id = c.id) AS visits,
			(SELECT COALESCE(SUM(s.total_amount), 0) FROM sessions s WHERE s.customer_id = c.id AND s.status = 'completed') AS total_spent,
			(SELECT COALESCE(SUM(d.remaining_amount), 0) FROM debts d WHERE d.customer_id = c.id) AS outstanding_debt`)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("c.name LIKE ?", "%"+query+"%")
	}

	var rows []CustomerSummary
	if err := q.Order("c.id desc").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, storeErr("search customers", err)
	}

	// Selected as a plain column so the driver scans it as a timestamp.
	for i := range rows {
		var last struct{ StartTime time.Time }
		res := l.db.WithContext(ctx).Table("sessions").Select("start_time").
			Where("customer_id = ?", rows[i].ID).Order("start_time desc").Limit(1).Scan(&last)
		if res.Error != nil {
			return nil, storeErr("search customers", res.Error)
		}
		if res.RowsAffected > 0 {
			t := last.StartTime
			rows[i].LastVisit = &t
		}
	}
	return rows, nil
}
