package models

import "gorm.io/gorm"

// Setting menyimpan konfigurasi key-value legacy (instalasi single-mess
// lama). Nilai per-mess di tabel mess selalu menang.
type Setting struct {
	ID          uint   `gorm:"primaryKey"`
	Key         string `gorm:"type:varchar(50);unique;not null"`
	Value       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:varchar(255)"`
}

// GetSetting mengembalikan value untuk key, atau fallback jika tidak ada.
func GetSetting(db *gorm.DB, key, fallback string) string {
	var setting Setting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		return fallback
	}
	return setting.Value
}

// SetSetting membuat atau mengupdate satu key.
func SetSetting(db *gorm.DB, key, value, description string) error {
	var setting Setting
	err := db.Where("key = ?", key).First(&setting).Error
	if err == gorm.ErrRecordNotFound {
		return db.Create(&Setting{Key: key, Value: value, Description: description}).Error
	}
	if err != nil {
		return err
	}
	setting.Value = value
	if description != "" {
		setting.Description = description
	}
	return db.Save(&setting).Error
}
