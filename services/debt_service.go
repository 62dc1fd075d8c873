package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
)

type RegisterDebtInput struct {
	CustomerName string  `form:"customer_name" json:"customer_name"`
	Amount       float64 `form:"amount" json:"amount"`
	Description  string  `form:"description" json:"description"`
}

type DebtSummary struct {
	TotalAmount    float64 `json:"total_amount"`
	TotalRemaining float64 `json:"total_remaining"`
	ActiveCount    int64   `json:"active_count"`
}

type DebtDetail struct {
	Debt      models.Debt `json:"debt"`
	TotalPaid float64     `json:"total_paid"`
}

// RegisterDebt opens a tab for a customer, creating the customer on first use.
func (l *Ledger) RegisterDebt(ctx context.Context, actor Actor, in RegisterDebtInput) (*models.Debt, error) {
	debt, err := l.registerDebt(ctx, actor, in)
	observe("register_debt", err)
	return debt, err
}

func (l *Ledger) registerDebt(ctx context.Context, actor Actor, in RegisterDebtInput) (*models.Debt, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.CustomerName)
	if name == "" || in.Amount <= 0 {
		return nil, validationf("customer name and a positive amount are required")
	}
	if !wholeYen(in.Amount) {
		return nil, validationf("amount must be a whole number of yen")
	}

	var debt models.Debt
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := firstOrCreateCustomer(tx, name)
		if err != nil {
			return err
		}
		debt = models.Debt{
			CustomerID:      customer.ID,
			Amount:          in.Amount,
			RemainingAmount: in.Amount,
			Description:     strings.TrimSpace(in.Description),
		}
		if err := tx.Create(&debt).Error; err != nil {
			return err
		}
		debt.Customer = customer
		return nil
	})
	if err != nil {
		return nil, storeErr("register debt", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"debt_id": debt.ID,
		"amount":  debt.Amount,
	}).Info("debt registered")
	return &debt, nil
}

// RecordPayment applies a repayment. A payment larger than the remaining
// balance is rejected and nothing is written.
func (l *Ledger) RecordPayment(ctx context.Context, actor Actor, debtID uint, amount float64) (*models.Debt, error) {
	debt, err := l.recordPayment(ctx, actor, debtID, amount)
	observe("record_payment", err)
	return debt, err
}

func (l *Ledger) recordPayment(ctx context.Context, actor Actor, debtID uint, amount float64) (*models.Debt, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if debtID == 0 || amount <= 0 {
		return nil, validationf("select a debt and enter a positive amount")
	}
	if !wholeYen(amount) {
		return nil, validationf("payment must be a whole number of yen")
	}

	var debt models.Debt
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&debt, debtID).Error; err != nil {
			return err
		}
		if amount > debt.RemainingAmount {
			return validationf("payment of %s exceeds the remaining balance of %s",
				utils.FormatCurrencyJPY(amount), utils.FormatCurrencyJPY(debt.RemainingAmount))
		}

		payment := models.DebtPayment{
			DebtID:     debt.ID,
			Amount:     amount,
			RecordedBy: actor.UserID,
			PaidAt:     l.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Debt{}).
			Where("id = ? AND remaining_amount >= ?", debt.ID, amount).
			Update("remaining_amount", gorm.Expr("remaining_amount - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return conflictf("the balance changed, reload and try again")
		}
		return tx.First(&debt, debt.ID).Error
	})
	if err != nil {
		return nil, storeErr("record payment", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"debt_id":   debt.ID,
		"amount":    amount,
		"remaining": debt.RemainingAmount,
	}).Info("debt payment recorded")
	return &debt, nil
}

// ListDebts returns debts newest first. activeOnly hides fully repaid debts.
func (l *Ledger) ListDebts(ctx context.Context, activeOnly bool) ([]models.Debt, error) {
	q := l.db.WithContext(ctx).Preload("Customer").Order("created_at desc")
	if activeOnly {
		q = q.Where("remaining_amount > 0")
	}
	var debts []models.Debt
	if err := q.Find(&debts).Error; err != nil {
		return nil, storeErr("list debts", err)
	}
	return debts, nil
}

func (l *Ledger) DebtSummary(ctx context.Context) (DebtSummary, error) {
	var s DebtSummary
	db := l.db.WithContext(ctx)
	if err := db.Model(&models.Debt{}).
		Select("COALESCE(SUM(amount), 0), COALESCE(SUM(remaining_amount), 0)").
		Row().Scan(&s.TotalAmount, &s.TotalRemaining); err != nil {
		return s, storeErr("debt summary", err)
	}
	if err := db.Model(&models.Debt{}).Where("remaining_amount > 0").Count(&s.ActiveCount).Error; err != nil {
		return s, storeErr("debt summary", err)
	}
	return s, nil
}

func (l *Ledger) DebtDetail(ctx context.Context, debtID uint) (*DebtDetail, error) {
	var debt models.Debt
	err := l.db.WithContext(ctx).Preload("Customer").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at desc")
		}).
		First(&debt, debtID).Error
	if err != nil {
		return nil, storeErr("debt detail", err)
	}
	detail := DebtDetail{Debt: debt}
	for _, p := range debt.Payments {
		detail.TotalPaid += p.Amount
	}
	return &detail, nil
}
