package database

import (
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates every table and inserts the default value of
// any setting that has never been saved.
func Migrate(db *gorm.DB, defaults map[string]string) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	rows := make([]models.Setting, 0, len(defaults))
	for k, v := range defaults {
		rows = append(rows, models.Setting{Key: k, Value: v})
	}
	if len(rows) == 0 {
		return nil
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		utils.InfoLogger.Printf("Seeded %d default settings", res.RowsAffected)
	}
	return nil
}
