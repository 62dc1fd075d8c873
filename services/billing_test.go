package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/club-pos/models"
)

func TestHoursElapsed(t *testing.T) {
	start := openedAt
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"just opened", 0, 0},
		{"under an hour", 59 * time.Minute, 0},
		{"exactly one hour", time.Hour, 1},
		{"one hour fifty nine", time.Hour + 59*time.Minute, 1},
		{"two hours", 2 * time.Hour, 2},
		{"past midnight", 5*time.Hour + 30*time.Minute, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HoursElapsed(start, start.Add(tt.elapsed)))
		})
	}

	assert.Zero(t, HoursElapsed(start, start.Add(-time.Minute)), "clock skew never bills negative hours")
}

func TestComputeBill(t *testing.T) {
	settings := Settings{SeatCharge: 3000, ExtensionFee: 1000}
	session := models.Session{ID: 7, StartTime: openedAt}
	orders := []models.Order{
		{Quantity: 2, UnitPrice: 800, TotalPrice: 1600},
		{Quantity: 1, UnitPrice: 1200, TotalPrice: 1200},
	}

	tests := []struct {
		name     string
		elapsed  time.Duration
		extHours int
		total    float64
	}{
		{"first hour is covered by the seat charge", 45 * time.Minute, 0, 5800},
		{"one hour", time.Hour, 0, 5800},
		{"two hours", 2 * time.Hour, 1, 6800},
		{"three and a half hours", 3*time.Hour + 30*time.Minute, 2, 7800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ComputeBill(session, orders, settings, openedAt.Add(tt.elapsed))
			assert.Equal(t, uint(7), b.SessionID)
			assert.Equal(t, 2800.0, b.Subtotal)
			assert.Equal(t, 3000.0, b.SeatCharge)
			assert.Equal(t, tt.extHours, b.ExtensionHours)
			assert.Equal(t, float64(tt.extHours)*1000, b.ExtensionCharge)
			assert.Equal(t, tt.total, b.Total)
			assert.Equal(t, b.Subtotal+b.SeatCharge+b.ExtensionCharge, b.Total)
		})
	}
}

func TestComputeBillNoOrders(t *testing.T) {
	b := ComputeBill(models.Session{StartTime: openedAt}, nil, DefaultSettings(), openedAt.Add(10*time.Minute))
	assert.Zero(t, b.Subtotal)
	assert.Equal(t, 3000.0, b.Total)
}

func TestSplitCommission(t *testing.T) {
	c := SplitCommission(5600, 30, 10)
	assert.Equal(t, 1680.0, c.CastShare)
	assert.Equal(t, 560.0, c.StaffShare)
	assert.Equal(t, 3360.0, c.StoreShare)

	c = SplitCommission(1000, 33.333, 0)
	assert.Equal(t, 333.33, c.CastShare)
	assert.InDelta(t, 1000, c.CastShare+c.StaffShare+c.StoreShare, 1e-9)

	c = SplitCommission(0, 30, 10)
	assert.Zero(t, c.CastShare+c.StaffShare+c.StoreShare)
}
