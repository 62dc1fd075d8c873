package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
)

type TableInput struct {
	TableNumber string `form:"table_number" json:"table_number"`
	Capacity    int    `form:"capacity" json:"capacity"`
	Status      string `form:"status" json:"status"`
}

type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).Order("table_number asc").Find(&tables).Error; err != nil {
		return nil, storeErr("list tables", err)
	}
	return tables, nil
}

func (s *TableService) Get(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, id).Error; err != nil {
		return nil, storeErr("get table", err)
	}
	return &table, nil
}

func (s *TableService) Create(ctx context.Context, actor Actor, in TableInput) (*models.Table, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	number := strings.TrimSpace(in.TableNumber)
	if number == "" || in.Capacity < 1 {
		return nil, validationf("table number and a capacity of at least 1 are required")
	}
	status := in.Status
	if status == "" {
		status = models.TableStatusAvailable
	}
	if !settableTableStatus(status) {
		return nil, validationf("invalid table status %q", status)
	}

	table := models.Table{TableNumber: number, Capacity: in.Capacity, Status: status}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniqueTableNumber(tx, number, 0); err != nil {
			return err
		}
		return tx.Create(&table).Error
	})
	if err != nil {
		return nil, storeErr("create table", err)
	}
	utils.InfoLogger.Printf("Table %s created (capacity %d)", table.TableNumber, table.Capacity)
	return &table, nil
}

// Update edits a table. Status may only be set by hand to available, reserved
// or maintenance, and only while no session is seated there.
func (s *TableService) Update(ctx context.Context, actor Actor, id uint, in TableInput) (*models.Table, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}

	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&table, id).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if number := strings.TrimSpace(in.TableNumber); number != "" && number != table.TableNumber {
			if err := uniqueTableNumber(tx, number, table.ID); err != nil {
				return err
			}
			updates["table_number"] = number
		}
		if in.Capacity != 0 {
			if in.Capacity < 1 {
				return validationf("capacity must be at least 1")
			}
			updates["capacity"] = in.Capacity
		}
		if in.Status != "" && in.Status != table.Status {
			if !settableTableStatus(in.Status) {
				return validationf("table status cannot be set to %q", in.Status)
			}
			if err := ensureTableFree(tx, &table); err != nil {
				return err
			}
			updates["status"] = in.Status
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&table).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&table, table.ID).Error
	})
	if err != nil {
		return nil, storeErr("update table", err)
	}
	utils.InfoLogger.Printf("Table %d updated", table.ID)
	return &table, nil
}

// Delete removes a table that has never hosted a session.
func (s *TableService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.require(models.RoleAdmin); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := forUpdate(tx).First(&table, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Session{}).Where("table_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflictf("table %s has session history; set it to maintenance instead", table.TableNumber)
		}
		return tx.Delete(&table).Error
	})
	if err != nil {
		return storeErr("delete table", err)
	}
	utils.InfoLogger.Printf("Table %d deleted", id)
	return nil
}

func settableTableStatus(s string) bool {
	return models.ValidTableStatus(s) && s != models.TableStatusOccupied
}

func uniqueTableNumber(tx *gorm.DB, number string, exceptID uint) error {
	var existing models.Table
	err := tx.Where("table_number = ? AND id <> ?", number, exceptID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return validationf("table number %s is already used", number)
}
