package database

import (
	"errors"
	"os"

	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Bootstrap memastikan data minimum ada: satu mess default (untuk
// instalasi single-mess lama), satu user admin, dan settings default.
func Bootstrap(db *gorm.DB) error {
	var mess models.Mess
	err := db.First(&mess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mess = models.Mess{
			Name:          "Default Mess",
			DailyMealRate: 100.0,
			UpiID:         os.Getenv("UPI_ID"),
			UpiName:       os.Getenv("UPI_NAME"),
			IsActive:      true,
		}
		if err := db.Create(&mess).Error; err != nil {
			return err
		}
		utils.InfoLogger.Println("Created default mess record")
	} else if err != nil {
		return err
	}

	var admin models.User
	err = db.Where("username = ?", "admin").First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			password = "admin123"
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin = models.User{
			Username:     "admin",
			PasswordHash: string(hashed),
			IsAdmin:      true,
			MessID:       &mess.ID,
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
		utils.InfoLogger.Println("Admin user created successfully")
	} else if err != nil {
		return err
	}

	if models.GetSetting(db, "daily_meal_rate", "") == "" {
		return models.SetSetting(db, "daily_meal_rate", "100.0", "Daily rate for 2 meals (lunch + dinner)")
	}
	return nil
}
