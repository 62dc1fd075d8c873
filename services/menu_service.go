package services

import (
	"context"
	"strings"

	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
)

// MenuItemInput binds create and update requests. IsAvailable is a pointer so
// an update can leave it unchanged.
type MenuItemInput struct {
	Name        string  `form:"name" json:"name"`
	Category    string  `form:"category" json:"category"`
	Price       float64 `form:"price" json:"price"`
	IsAvailable *bool   `form:"is_available" json:"is_available"`
}

type MenuFilter struct {
	Category      string
	AvailableOnly bool
}

type MenuService struct {
	db *gorm.DB
}

func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{db: db}
}

func (s *MenuService) List(ctx context.Context, f MenuFilter) ([]models.MenuItem, error) {
	q := s.db.WithContext(ctx).Order("category asc, name asc")
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, storeErr("list menu", err)
	}
	return items, nil
}

func (s *MenuService) Create(ctx context.Context, actor Actor, in MenuItemInput) (*models.MenuItem, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("menu item name is required")
	}
	if !models.ValidMenuCategory(in.Category) {
		return nil, validationf("invalid category %q", in.Category)
	}
	if in.Price < 0 || !wholeYen(in.Price) {
		return nil, validationf("price must be a whole, non-negative yen amount")
	}

	item := models.MenuItem{Name: name, Category: in.Category, Price: in.Price, IsAvailable: true}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, storeErr("create menu item", err)
	}
	utils.InfoLogger.Printf("Menu item created: %s (%s)", item.Name, utils.FormatCurrencyJPY(item.Price))
	return &item, nil
}

// Update changes a menu item. Orders already placed keep the price they
// were recorded with.
func (s *MenuService) Update(ctx context.Context, actor Actor, id uint, in MenuItemInput) (*models.MenuItem, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}

	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&item, id).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if name := strings.TrimSpace(in.Name); name != "" {
			updates["name"] = name
		}
		if in.Category != "" {
			if !models.ValidMenuCategory(in.Category) {
				return validationf("invalid category %q", in.Category)
			}
			updates["category"] = in.Category
		}
		if in.Price < 0 || !wholeYen(in.Price) {
			return validationf("price must be a whole, non-negative yen amount")
		}
		if in.Price > 0 {
			updates["price"] = in.Price
		}
		if in.IsAvailable != nil {
			updates["is_available"] = *in.IsAvailable
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&item, item.ID).Error
	})
	if err != nil {
		return nil, storeErr("update menu item", err)
	}
	utils.InfoLogger.Printf("Menu item %d updated", item.ID)
	return &item, nil
}

// Delete removes a menu item that was never ordered. Ordered items are kept
// for the sales history and should be marked unavailable instead.
func (s *MenuService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.require(models.RoleAdmin); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := forUpdate(tx).First(&item, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Order{}).Where("menu_item_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflictf("%s has been ordered; mark it unavailable instead", item.Name)
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return storeErr("delete menu item", err)
	}
	utils.InfoLogger.Printf("Menu item %d deleted", id)
	return nil
}
