package services

import (
	"context"
	"time"

	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
)

// KitchenTicket is one order line as the kitchen display shows it.
type KitchenTicket struct {
	OrderID      uint      `json:"order_id"`
	SessionID    uint      `json:"session_id"`
	MenuName     string    `json:"menu_name"`
	Category     string    `json:"category"`
	Quantity     int       `json:"quantity"`
	Status       string    `json:"status"`
	TableNumber  string    `json:"table_number"`
	CustomerName string    `json:"customer_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type KitchenQueue struct {
	Pending   []KitchenTicket `json:"pending"`
	Preparing []KitchenTicket `json:"preparing"`
}

type KitchenService struct {
	db *gorm.DB
}

func NewKitchenService(db *gorm.DB) *KitchenService {
	return &KitchenService{db: db}
}

// Queue lists the food and drink orders still waiting on the kitchen.
func (s *KitchenService) Queue(ctx context.Context) (*KitchenQueue, error) {
	var tickets []KitchenTicket
	err := s.db.WithContext(ctx).Table("orders o").
		Select(`o.id AS order_id, o.session_id, m.name AS menu_name, m.category, o.quantity,
			o.status, t.table_number, c.name AS customer_name, o.created_at`).
		Joins("JOIN menu_items m ON o.menu_item_id = m.id").
		Joins("JOIN sessions s ON o.session_id = s.id").
		Joins("JOIN tables t ON s.table_id = t.id").
		Joins("JOIN customers c ON s.customer_id = c.id").
		Where("o.status IN ?", []string{models.OrderStatusPending, models.OrderStatusPreparing}).
		Where("m.category IN ?", []string{models.MenuCategoryFood, models.MenuCategoryDrink}).
		Order("o.created_at asc").
		Scan(&tickets).Error
	if err != nil {
		return nil, storeErr("kitchen queue", err)
	}

	q := &KitchenQueue{Pending: []KitchenTicket{}, Preparing: []KitchenTicket{}}
	for _, t := range tickets {
		if t.Status == models.OrderStatusPending {
			q.Pending = append(q.Pending, t)
		} else {
			q.Preparing = append(q.Preparing, t)
		}
	}
	return q, nil
}

// StartPreparing moves an order from pending to preparing.
func (s *KitchenService) StartPreparing(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, orderID, models.OrderStatusPreparing, models.OrderStatusPending)
}

// CompleteOrder marks an order served. Pending orders can be completed
// directly, e.g. a bottle that needs no preparation.
func (s *KitchenService) CompleteOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, orderID, models.OrderStatusCompleted,
		models.OrderStatusPending, models.OrderStatusPreparing)
}

func (s *KitchenService) transition(ctx context.Context, actor Actor, orderID uint, to string, from ...string) (*models.Order, error) {
	if err := actor.require(models.RoleKitchen, models.RoleStaff); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Preload("Session").First(&order, orderID).Error; err != nil {
			return err
		}
		if order.Session != nil && !order.Session.IsActive() {
			return conflictf("order %d belongs to a completed session", order.ID)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", order.ID, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return conflictf("order %d is already %s", order.ID, order.Status)
		}
		order.Status = to
		return nil
	})
	observe("kitchen_"+to, err)
	if err != nil {
		return nil, storeErr("kitchen transition", err)
	}

	utils.InfoLogger.Printf("Order %d status changed to %s", order.ID, to)
	return &order, nil
}
