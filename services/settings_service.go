package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting keys stored in the settings table.
const (
	KeySeatCharge          = "seat_charge"
	KeyExtensionFee        = "extension_fee"
	KeyCastCommissionRate  = "cast_commission_rate"
	KeyStaffCommissionRate = "staff_commission_rate"
	KeyTaxRate             = "tax_rate"
	KeyServiceChargeRate   = "service_charge_rate"
	KeyStoreName           = "store_name"
	KeyStorePhone          = "store_phone"
	KeyStoreAddress        = "store_address"
	KeyOpeningTime         = "opening_time"
	KeyClosingTime         = "closing_time"
	KeyBackupRetentionDays = "backup_retention_days"
)

// SettingKeys is every key the application reads, in display order.
var SettingKeys = []string{
	KeySeatCharge, KeyExtensionFee, KeyCastCommissionRate, KeyStaffCommissionRate,
	KeyTaxRate, KeyServiceChargeRate, KeyStoreName, KeyStorePhone, KeyStoreAddress,
	KeyOpeningTime, KeyClosingTime, KeyBackupRetentionDays,
}

// Settings is the typed view of the key/value settings table. Rates are
// percentages. TaxRate and ServiceChargeRate are kept for the receipt header
// and are not added to the bill.
type Settings struct {
	SeatCharge          float64 `json:"seat_charge"`
	ExtensionFee        float64 `json:"extension_fee"`
	CastCommissionRate  float64 `json:"cast_commission_rate"`
	StaffCommissionRate float64 `json:"staff_commission_rate"`
	TaxRate             float64 `json:"tax_rate"`
	ServiceChargeRate   float64 `json:"service_charge_rate"`
	StoreName           string  `json:"store_name"`
	StorePhone          string  `json:"store_phone"`
	StoreAddress        string  `json:"store_address"`
	OpeningTime         string  `json:"opening_time"`
	ClosingTime         string  `json:"closing_time"`
	BackupRetentionDays int     `json:"backup_retention_days"`
}

// DefaultSettings are used for any key missing from the table.
func DefaultSettings() Settings {
	return Settings{
		SeatCharge:          3000,
		ExtensionFee:        1000,
		BackupRetentionDays: 30,
	}
}

// ParseSettings overlays kv on base. Empty values keep the base value.
func ParseSettings(base Settings, kv map[string]string) (Settings, error) {
	s := base
	floats := map[string]*float64{
		KeySeatCharge:          &s.SeatCharge,
		KeyExtensionFee:        &s.ExtensionFee,
		KeyCastCommissionRate:  &s.CastCommissionRate,
		KeyStaffCommissionRate: &s.StaffCommissionRate,
		KeyTaxRate:             &s.TaxRate,
		KeyServiceChargeRate:   &s.ServiceChargeRate,
	}
	strs := map[string]*string{
		KeyStoreName:    &s.StoreName,
		KeyStorePhone:   &s.StorePhone,
		KeyStoreAddress: &s.StoreAddress,
		KeyOpeningTime:  &s.OpeningTime,
		KeyClosingTime:  &s.ClosingTime,
	}

	for key, raw := range kv {
		v := strings.TrimSpace(raw)
		if dst, ok := floats[key]; ok {
			if v == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return base, validationf("%s must be a number", key)
			}
			*dst = f
			continue
		}
		if dst, ok := strs[key]; ok {
			*dst = v
			continue
		}
		if key == KeyBackupRetentionDays && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return base, validationf("%s must be a whole number", key)
			}
			s.BackupRetentionDays = n
		}
	}
	return s, nil
}

// Validate rejects settings that would produce meaningless bills or shares.
func (s Settings) Validate() error {
	if s.SeatCharge < 0 || s.ExtensionFee < 0 {
		return validationf("charges cannot be negative")
	}
	rates := map[string]float64{
		KeyCastCommissionRate:  s.CastCommissionRate,
		KeyStaffCommissionRate: s.StaffCommissionRate,
		KeyTaxRate:             s.TaxRate,
		KeyServiceChargeRate:   s.ServiceChargeRate,
	}
	for key, r := range rates {
		if r < 0 || r > 100 {
			return validationf("%s must be between 0 and 100", key)
		}
	}
	if s.CastCommissionRate+s.StaffCommissionRate > 100 {
		return validationf("cast and staff commission rates cannot exceed 100%% together")
	}
	for key, v := range map[string]string{KeyOpeningTime: s.OpeningTime, KeyClosingTime: s.ClosingTime} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("15:04", v); err != nil {
			return validationf("%s must be HH:MM", key)
		}
	}
	if s.BackupRetentionDays < 1 {
		return validationf("%s must be at least 1", KeyBackupRetentionDays)
	}
	return nil
}

// Values renders the settings back to their stored string form.
func (s Settings) Values() map[string]string {
	ff := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	return map[string]string{
		KeySeatCharge:          ff(s.SeatCharge),
		KeyExtensionFee:        ff(s.ExtensionFee),
		KeyCastCommissionRate:  ff(s.CastCommissionRate),
		KeyStaffCommissionRate: ff(s.StaffCommissionRate),
		KeyTaxRate:             ff(s.TaxRate),
		KeyServiceChargeRate:   ff(s.ServiceChargeRate),
		KeyStoreName:           s.StoreName,
		KeyStorePhone:          s.StorePhone,
		KeyStoreAddress:        s.StoreAddress,
		KeyOpeningTime:         s.OpeningTime,
		KeyClosingTime:         s.ClosingTime,
		KeyBackupRetentionDays: strconv.Itoa(s.BackupRetentionDays),
	}
}

type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Load reads and validates the current settings.
func (s *SettingsService) Load(ctx context.Context) (Settings, error) {
	return loadSettings(s.db.WithContext(ctx))
}

// Update overlays values on the stored settings and upserts every key in one
// transaction. Last write wins.
func (s *SettingsService) Update(ctx context.Context, actor Actor, values map[string]string) (Settings, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return Settings{}, err
	}

	var saved Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadSettings(tx)
		if err != nil {
			return err
		}
		next, err := ParseSettings(current, values)
		if err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := saveSettings(tx, next); err != nil {
			return err
		}
		saved = next
		return nil
	})
	if err != nil {
		return Settings{}, storeErr("update settings", err)
	}

	utils.InfoLogger.WithField("user_id", actor.UserID).Info("settings updated")
	return saved, nil
}

func loadSettings(tx *gorm.DB) (Settings, error) {
	var rows []models.Setting
	if err := tx.Find(&rows).Error; err != nil {
		return Settings{}, storeErr("load settings", err)
	}
	kv := make(map[string]string, len(rows))
	for _, r := range rows {
		kv[r.Key] = r.Value
	}
	settings, err := ParseSettings(DefaultSettings(), kv)
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func saveSettings(tx *gorm.DB, s Settings) error {
	values := s.Values()
	rows := make([]models.Setting, 0, len(values))
	for _, key := range SettingKeys {
		rows = append(rows, models.Setting{Key: key, Value: values[key]})
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(&rows).Error
}
