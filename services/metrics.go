package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "club_pos_checkouts_total",
		Help: "Completed session checkouts.",
	})
	checkoutRevenue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "club_pos_checkout_revenue_total",
		Help: "Sum of checkout totals in yen.",
	})
	ledgerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "club_pos_ledger_operations_total",
		Help: "Ledger operations by outcome.",
	}, []string{"operation", "outcome"})
)

func observe(op string, err error) {
	var ve *ValidationError
	var ce *ConflictError
	outcome := "ok"
	switch {
	case err == nil:
	case errors.As(err, &ve):
		outcome = "invalid"
	case errors.As(err, &ce):
		outcome = "conflict"
	case errors.Is(err, ErrForbidden):
		outcome = "forbidden"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	ledgerOutcomes.WithLabelValues(op, outcome).Inc()
}
