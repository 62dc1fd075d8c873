package services

import (
	"math"
	"time"

	"github.com/yeremiapane/club-pos/models"
)

// Bill is the checkout breakdown for one session.
type Bill struct {
	SessionID       uint      `json:"session_id"`
	Subtotal        float64   `json:"subtotal"`
	SeatCharge      float64   `json:"seat_charge"`
	HoursElapsed    int       `json:"hours_elapsed"`
	ExtensionHours  int       `json:"extension_hours"`
	ExtensionFee    float64   `json:"extension_fee"`
	ExtensionCharge float64   `json:"extension_charge"`
	Total           float64   `json:"total"`
	StartTime       time.Time `json:"start_time"`
	ComputedAt      time.Time `json:"computed_at"`
}

// wholeYen reports whether amount has no fractional part. Yen has no minor
// unit, so ledger amounts are whole numbers.
func wholeYen(amount float64) bool {
	return amount == math.Trunc(amount)
}

// HoursElapsed truncates to whole hours: 1h59m counts as one hour.
func HoursElapsed(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / time.Hour)
}

// ComputeBill prices a session's orders with the seat charge and one
// extension fee for every full hour after the first.
func ComputeBill(session models.Session, orders []models.Order, settings Settings, now time.Time) Bill {
	var subtotal float64
	for _, o := range orders {
		subtotal += o.TotalPrice
	}

	hours := HoursElapsed(session.StartTime, now)
	extHours := hours - 1
	if extHours < 0 {
		extHours = 0
	}
	extCharge := float64(extHours) * settings.ExtensionFee

	return Bill{
		SessionID:       session.ID,
		Subtotal:        subtotal,
		SeatCharge:      settings.SeatCharge,
		HoursElapsed:    hours,
		ExtensionHours:  extHours,
		ExtensionFee:    settings.ExtensionFee,
		ExtensionCharge: extCharge,
		Total:           subtotal + settings.SeatCharge + extCharge,
		StartTime:       session.StartTime,
		ComputedAt:      now,
	}
}

// Commission is how a sale's total divides between cast, staff and store.
type Commission struct {
	Total      float64 `json:"total"`
	CastShare  float64 `json:"cast_share"`
	StaffShare float64 `json:"staff_share"`
	StoreShare float64 `json:"store_share"`
}

// SplitCommission applies the percentage rates to total. The store keeps the
// remainder, so the three shares always add back up to total.
func SplitCommission(total, castRate, staffRate float64) Commission {
	cast := roundYen(total * castRate / 100)
	staff := roundYen(total * staffRate / 100)
	return Commission{
		Total:      total,
		CastShare:  cast,
		StaffShare: staff,
		StoreShare: total - cast - staff,
	}
}

func roundYen(v float64) float64 {
	return math.Round(v*100) / 100
}
